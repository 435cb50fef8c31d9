package app

import (
	"context"
	"time"

	"testria_backend/pkg/logger"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// cronLogger 将 cron 的日志接入 zap
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.Log.Sugar().Debugw(msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.Log.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}

func (a *App) startBackgroundJobs(ctx context.Context) {
	c := cron.New(cron.WithLogger(cronLogger{}), cron.WithChain(cron.Recover(cronLogger{})))

	visibility := time.Duration(a.Config.Queue.VisibilityTimeoutSeconds) * time.Second
	_, err := c.AddFunc("@every 1m", func() {
		n, err := a.Queue.RequeueStale(ctx, visibility)
		if err != nil {
			logger.Log.Error("Failed to requeue stale tasks", zap.Error(err))
			return
		}
		if n > 0 {
			logger.Log.Warn("Requeued stale tasks", zap.Int("count", n))
		}
	})
	if err != nil {
		logger.Log.Error("Failed to schedule task reaper", zap.Error(err))
		return
	}

	c.Start()
	a.cron = c
}
