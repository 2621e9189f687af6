// Package agent implements the iterative agent execution loop.
//
// An Agent alternates between requesting a completion from a provider
// and executing the tool calls the response proposes, until the model
// answers without requesting tools, the iteration budget runs out, a
// per-iteration timeout fires, or an error occurs.
//
//	registry := tool.NewRegistry()
//	registry.MustRegister(tool.NewReadFileTool())
//
//	a := agent.New(provider, registry,
//	    agent.WithApprovalMode(agent.ApprovalAuto),
//	    agent.WithMaxIterations(5),
//	)
//
//	result := a.Run(ctx, []loom.Message{
//	    {Role: loom.RoleUser, Content: "Summarize notes.txt"},
//	})
//
// Run never returns an error; terminal failures are reported through
// the result's StoppedReason and Err fields together with whatever
// partial progress was made.
//
// Tool calls proposed in one model turn execute concurrently. Results
// are returned in call order regardless of completion order, and one
// tool's failure never cancels its siblings.
package agent
