package app

import (
	"context"

	"github.com/fairtouch/fairtouch/pkg/logger"
)

// stage enumerates the per-request attribution lifecycle. Each request walks
// Received -> Validating -> {ExactPath | MonteCarloPath} -> Normalizing ->
// Completed, with Failed reachable from Validating and both computation paths.
// No stage survives the request; there is no cross-request state.
type stage int

const (
	stageReceived stage = iota
	stageValidating
	stageExactPath
	stageMonteCarloPath
	stageNormalizing
	stageCompleted
	stageFailed
)

func (s stage) String() string {
	switch s {
	case stageReceived:
		return "received"
	case stageValidating:
		return "validating"
	case stageExactPath:
		return "exact_path"
	case stageMonteCarloPath:
		return "monte_carlo_path"
	case stageNormalizing:
		return "normalizing"
	case stageCompleted:
		return "completed"
	case stageFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// lifecycle traces one request through its stages.
type lifecycle struct {
	current stage
	log     logger.Logger
	reqID   string
}

func newLifecycle(log logger.Logger, reqID string) *lifecycle {
	return &lifecycle{current: stageReceived, log: log, reqID: reqID}
}

func (l *lifecycle) advance(ctx context.Context, next stage) {
	l.log.Debug(ctx, "attribution stage",
		logger.String("computationID", l.reqID),
		logger.String("from", l.current.String()),
		logger.String("to", next.String()),
	)
	l.current = next
}
