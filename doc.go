// Package loom provides the shared data model for an iterative, tool-using
// agent loop driven by a language-model completion backend.
//
// The root package defines the conversation types ([Message], [Response]),
// the tool contract ([Definition], [ToolCall], [ToolResult]) and the
// [CompletionProvider] interface that backend adapters implement. The loop
// itself lives in the agent package; tool registration in the tool package;
// response introspection in the parse package.
//
// # Basic Usage
//
// Register tools, create a loop, and run it:
//
//	registry := tool.NewRegistry()
//	registry.MustRegister(tool.MustBind("get_weather", "Get current weather",
//	    func(ctx context.Context, args WeatherArgs) (string, error) {
//	        return getWeather(args.Location), nil
//	    }))
//
//	loop := agent.New(anthropic.New(apiKey), registry,
//	    agent.WithApprovalMode(agent.ApprovalAuto))
//	result := loop.Run(ctx, []loom.Message{
//	    {Role: loom.RoleUser, Content: "What's the weather in Tokyo?"},
//	})
//
// The loop alternates between requesting a completion and executing the tool
// calls the response proposes, until the model answers without tools, the
// iteration budget runs out, a completion times out, or an error occurs.
package loom
