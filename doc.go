// Package relay bridges task requests to a primary reasoning agent
// while keeping side effects under the caller's control.
//
// A request carries a prompt, a write-access flag, and optional model,
// effort, context, and timeout overrides. The bridge starts the
// primary runtime on first use, builds one isolated session per
// request with the secondary agent ("scout") attached as a restricted
// sub-tool, mediates every privileged action through a pure policy,
// and returns the agent's answer annotated with the tools it used.
//
// Basic use:
//
//	handle := runtime.NewHandle(startFunc, logger)
//	bridge := relay.NewBridge(handle, cfg, logger)
//	result, err := bridge.Run(ctx, relay.Request{
//		Prompt:      "summarize the design doc",
//		WriteAccess: false,
//	})
//
// Sessions are destroyed on every exit path; cleanup failures are
// logged and never replace the request's outcome.
package relay
