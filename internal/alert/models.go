// Package alert compares aggregated route forecasts against a configured
// threshold and dispatches notifications for routes that exceed it.
package alert

import "context"

// Dispatcher delivers a notification. Implementations report delivery
// outcome via the return value and must never panic or propagate transport
// errors to the caller.
type Dispatcher interface {
	Send(ctx context.Context, to, subject, body string) bool
	Name() string
}
