package anomaly

import "context"

// ActionExecutor carries out one auto-response action string against an
// agent, mirroring pkg/respond.Executor so both C6 and C9 can share an
// implementation.
type ActionExecutor interface {
	Execute(ctx context.Context, agentID, action string) error
}

// AutoRespond executes spec.md §4.8's fixed action list for alert's
// severity (nil for low/medium) and records which actions ran. Execution
// errors are swallowed per-action — auto-response is best-effort, fire-and-
// forget, like C6's adaptive actions.
func AutoRespond(ctx context.Context, exec ActionExecutor, alert *SecurityAlert) {
	actions := AutoResponseActions(alert.Severity)
	for _, action := range actions {
		if exec != nil {
			_ = exec.Execute(ctx, alert.Actor, action)
		}
		alert.AutoResponded = append(alert.AutoResponded, action)
	}
}
