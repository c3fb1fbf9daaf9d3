// Package scheduler は robfig/cron の薄いラッパーです。
// ジョブ本体の相互排他とタイムアウトは呼び出し側 (jobs.Runner) が担います。
package scheduler

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Scheduler は定期ジョブの登録と起動を管理します。
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger
}

// New は Scheduler を生成します。
func New(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cron:   cron.New(),
		logger: logger,
	}
}

// Register は cron 式でジョブを登録します。fn のエラーはログに記録され伝播しません。
func (s *Scheduler) Register(spec, name string, fn func(context.Context) error) error {
	_, err := s.cron.AddFunc(spec, func() {
		s.logger.Info("scheduled job starting", slog.String("job", name))
		if err := fn(context.Background()); err != nil {
			s.logger.Error("scheduled job failed", slog.String("job", name), slog.String("error", err.Error()))
			return
		}
		s.logger.Info("scheduled job finished", slog.String("job", name))
	})
	return err
}

// Start はスケジューラを起動します。
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop はスケジューラを停止し、実行中ジョブの完了を待つコンテキストを返します。
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}
