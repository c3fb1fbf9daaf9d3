package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	dirclient "github.com/ogurasousui/onboarding-checklist/internal/adapters/directory"
	"github.com/ogurasousui/onboarding-checklist/internal/adapters/http/handler"
	"github.com/ogurasousui/onboarding-checklist/internal/adapters/mailer"
	"github.com/ogurasousui/onboarding-checklist/internal/adapters/renderer"
	"github.com/ogurasousui/onboarding-checklist/internal/adapters/repository/postgres"
	"github.com/ogurasousui/onboarding-checklist/internal/core/checklist"
	"github.com/ogurasousui/onboarding-checklist/internal/core/notification"
	"github.com/ogurasousui/onboarding-checklist/internal/core/template"
	"github.com/ogurasousui/onboarding-checklist/internal/jobs"
	"github.com/ogurasousui/onboarding-checklist/internal/platform/config"
	pg "github.com/ogurasousui/onboarding-checklist/internal/platform/db/postgres"
	"github.com/ogurasousui/onboarding-checklist/internal/platform/metrics"
	"github.com/ogurasousui/onboarding-checklist/internal/platform/scheduler"
	"github.com/ogurasousui/onboarding-checklist/internal/platform/server"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "assets/local.yaml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	dbPool, err := pg.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Error("failed to initialize database pool", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer dbPool.Close()

	txManager := pg.NewTransactionManager(dbPool)

	templateRepo := postgres.NewTemplateRepository(dbPool)
	checklistRepo := postgres.NewChecklistRepository(dbPool)
	auditRepo := postgres.NewAuditRepository(dbPool)

	templateSvc := template.NewService(templateRepo, nil, txManager)
	checklistSvc := checklist.NewService(checklistRepo, templateRepo, nil, txManager)

	directoryClient := dirclient.NewClient(cfg.Directory.BaseURL, cfg.Directory.Timeout)
	rendererClient := renderer.NewClient(cfg.Renderer.BaseURL, cfg.Renderer.Timeout)
	mailSender := mailer.NewSender(mailer.Config{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
	})

	dispatcher := notification.NewDispatcher(rendererClient, mailSender, checklistSvc, nil, logger, notification.Config{
		TemplateID: cfg.Notification.TemplateID,
		Subject:    cfg.Notification.Subject,
		Sender:     cfg.Notification.Sender,
		SenderName: cfg.Notification.SenderName,
	})

	m := metrics.New()
	runner := jobs.NewRunner(cfg.Tenants, pg.NewJobLock(dbPool, logger), m, logger)

	scheduled := []struct {
		cfg config.JobConfig
		job jobs.Job
	}{
		{cfg.Scheduler.ImportChecklists, jobs.NewImportJob(directoryClient, checklistSvc, auditRepo, nil, logger, cfg.Scheduler.HiringWindowDays)},
		{cfg.Scheduler.LockExpired, jobs.NewLockExpiredJob(checklistSvc, nil, logger)},
		{cfg.Scheduler.SendNotifications, jobs.NewSendNotificationsJob(checklistSvc, directoryClient, dispatcher, nil, logger)},
		{cfg.Scheduler.RefreshManagers, jobs.NewRefreshManagersJob(checklistSvc, directoryClient, logger)},
		{cfg.Scheduler.PurgeAudit, jobs.NewPurgeAuditJob(auditRepo, nil, logger, cfg.Retention.AuditMaxLifetimeDays)},
	}

	sched := scheduler.New(logger)
	triggers := make(map[string]handler.JobFunc, len(scheduled))
	for _, entry := range scheduled {
		job := entry.job
		maxHold := maxHoldOrDefault(entry.cfg)
		triggers[job.Name()] = func(ctx context.Context) (*jobs.Summary, error) {
			return runner.Run(ctx, job, maxHold)
		}
		if !entry.cfg.Enabled {
			continue
		}
		if err := sched.Register(entry.cfg.Cron, job.Name(), func(ctx context.Context) error {
			_, err := runner.Run(ctx, job, maxHold)
			return err
		}); err != nil {
			logger.Error("failed to register scheduled job",
				slog.String("job", job.Name()),
				slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	router := handler.NewRouter(handler.Deps{
		Checklists:     handler.NewChecklistHandler(checklistSvc),
		Templates:      handler.NewTemplateHandler(templateSvc),
		Audit:          handler.NewAuditHandler(auditRepo),
		Jobs:           handler.NewJobHandler(triggers),
		MetricsHandler: m.Handler(),
	})

	sched.Start()
	defer func() { <-sched.Stop().Done() }()

	httpServer := server.New(cfg.Server.ListenAddr, router)
	logger.Info("http server listening", slog.String("addr", cfg.Server.ListenAddr))

	if err := httpServer.Run(ctx); err != nil {
		logger.Error("server stopped with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func maxHoldOrDefault(jc config.JobConfig) time.Duration {
	if jc.MaxHold > 0 {
		return jc.MaxHold
	}
	return 10 * time.Minute
}
