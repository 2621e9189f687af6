// Package schema builds JSON Schema objects for tool parameters.
//
// Two styles are supported. Programmatic construction with fluent builders:
//
//	params := schema.Object().
//		Field("location", schema.String().Desc("City name").Required()).
//		Field("unit", schema.String().Enum("celsius", "fahrenheit")).
//		Field("days", schema.Int().Min(1).Max(14).Default(7)).
//		MustBuild()
//
// Or reflection over an argument struct, used by tool.Func:
//
//	type ForecastArgs struct {
//	    Location string `json:"location" desc:"City name" required:"true"`
//	    Days     int    `json:"days" desc:"Forecast days"`
//	}
//	params := schema.MustFor[ForecastArgs]()
//
// Builders validate on Build: range inversions, bad regex patterns and
// missing array item schemas are reported as errors rather than emitted as
// broken schemas.
package schema
