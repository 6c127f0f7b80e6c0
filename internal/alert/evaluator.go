package alert

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ratheesh-17/airaware/internal/forecast"
)

// DefaultDispatchTimeout bounds a single background delivery attempt.
const DefaultDispatchTimeout = 15 * time.Second

// DefaultThreshold is the first-horizon peak above which routes alert when
// no threshold is configured.
const DefaultThreshold = 150.0

// EvaluatorConfig holds configuration for the alert evaluator.
type EvaluatorConfig struct {
	// Dispatcher delivers triggered notifications (required).
	Dispatcher Dispatcher

	// Recipient receives alert notifications (required).
	Recipient string

	// Threshold is the first-horizon peak above which a route alerts.
	Threshold float64

	// DispatchTimeout bounds each delivery attempt (default: 15s).
	DispatchTimeout time.Duration

	// Logger for evaluator operations.
	Logger zerolog.Logger
}

// Evaluator raises notifications for routes whose predicted first-horizon
// peak strictly exceeds the threshold. Dispatch happens in the background;
// callers are never blocked on, or failed by, delivery.
type Evaluator struct {
	dispatcher      Dispatcher
	recipient       string
	threshold       float64
	dispatchTimeout time.Duration
	logger          zerolog.Logger

	wg sync.WaitGroup
}

// NewEvaluator creates a new alert evaluator.
func NewEvaluator(cfg EvaluatorConfig) *Evaluator {
	dispatchTimeout := cfg.DispatchTimeout
	if dispatchTimeout == 0 {
		dispatchTimeout = DefaultDispatchTimeout
	}

	return &Evaluator{
		dispatcher:      cfg.Dispatcher,
		recipient:       cfg.Recipient,
		threshold:       cfg.Threshold,
		dispatchTimeout: dispatchTimeout,
		logger:          cfg.Logger,
	}
}

// Threshold returns the configured alert threshold.
func (e *Evaluator) Threshold() float64 {
	return e.threshold
}

// Evaluate inspects each route summary and dispatches a notification for
// every route whose MaxForecast[0] strictly exceeds the threshold. A value
// equal to the threshold does not trigger.
func (e *Evaluator) Evaluate(summaries []forecast.RouteSummary) {
	for _, s := range summaries {
		if len(s.MaxForecast) == 0 || s.MaxForecast[0] <= e.threshold {
			continue
		}
		e.dispatch(s)
	}
}

// dispatch delivers one alert in the background, detached from the request
// lifecycle so notification latency never delays the response.
func (e *Evaluator) dispatch(s forecast.RouteSummary) {
	alertID := uuid.NewString()
	peak := s.MaxForecast[0]

	e.logger.Info().
		Str("alert_id", alertID).
		Int("route_index", s.RouteIndex).
		Float64("peak", peak).
		Float64("threshold", e.threshold).
		Msg("route forecast exceeds alert threshold")

	subject := fmt.Sprintf("High pollution forecast on route %d", s.RouteIndex)
	body := fmt.Sprintf(
		"Predicted PM2.5 peak of %.1f exceeds the alert threshold of %.1f across %d sampled waypoints.",
		peak, e.threshold, s.WaypointCount,
	)

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), e.dispatchTimeout)
		defer cancel()

		if !e.dispatcher.Send(ctx, e.recipient, subject, body) {
			e.logger.Warn().
				Str("alert_id", alertID).
				Int("route_index", s.RouteIndex).
				Str("dispatcher", e.dispatcher.Name()).
				Msg("alert notification delivery failed")
			return
		}

		e.logger.Debug().
			Str("alert_id", alertID).
			Int("route_index", s.RouteIndex).
			Msg("alert notification delivered")
	}()
}

// Wait blocks until all in-flight dispatches complete. Used in tests and
// during graceful shutdown.
func (e *Evaluator) Wait() {
	e.wg.Wait()
}
