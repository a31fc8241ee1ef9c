package notify

import (
	"context"

	"github.com/lightningtw/dispatchd/core/logger"
	"github.com/lightningtw/dispatchd/core/model"
)

// LogSink writes notifications to the logger only. Used when no broker is
// configured and in dry runs.
type LogSink struct {
	Log logger.Logger
}

func (s LogSink) Notify(ctx context.Context, msg string, priority model.Priority) error {
	_ = ctx
	if s.Log != nil {
		s.Log.Infof("notification [%s]: %s", deliveryPriority(priority), msg)
	}
	return nil
}
