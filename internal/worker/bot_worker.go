package worker

import (
	"context"

	"go.uber.org/zap"
)

// Runner is a long-lived background task such as the forum bot.
type Runner interface {
	Run(ctx context.Context) error
}

// StartBotWorker runs the bot in its own goroutine. The returned channel is
// closed once the bot returns; a non-nil terminal error is logged.
func StartBotWorker(ctx context.Context, bot Runner, logger *zap.Logger) <-chan struct{} {
	done := make(chan struct{})
	if bot == nil {
		close(done)
		return done
	}
	go func() {
		defer close(done)
		if err := bot.Run(ctx); err != nil {
			logger.Error("bot task crashed", zap.Error(err))
		}
	}()
	return done
}
