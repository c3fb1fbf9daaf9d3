// onboarding-jobs はスケジュールを介さずにジョブを 1 パス実行する運用コマンドです。
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	dirclient "github.com/ogurasousui/onboarding-checklist/internal/adapters/directory"
	"github.com/ogurasousui/onboarding-checklist/internal/adapters/mailer"
	"github.com/ogurasousui/onboarding-checklist/internal/adapters/renderer"
	"github.com/ogurasousui/onboarding-checklist/internal/adapters/repository/postgres"
	"github.com/ogurasousui/onboarding-checklist/internal/core/checklist"
	"github.com/ogurasousui/onboarding-checklist/internal/core/notification"
	"github.com/ogurasousui/onboarding-checklist/internal/jobs"
	"github.com/ogurasousui/onboarding-checklist/internal/platform/config"
	pg "github.com/ogurasousui/onboarding-checklist/internal/platform/db/postgres"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "onboarding-jobs",
		Short:         "Run onboarding checklist jobs on demand",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (defaults to CONFIG_PATH env or assets/local.yaml)")

	run := &cobra.Command{
		Use:   "run <job>",
		Short: "Run a single job pass and print its outcome counts",
		Long: "Run a single job pass under the same advisory lock as the scheduler.\n" +
			"Known jobs: import-checklists, lock-expired, send-notifications, refresh-managers, purge-audit.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJob(cmd.Context(), effectiveConfigPath(configPath), args[0])
		},
	}
	root.AddCommand(run)

	return root
}

func effectiveConfigPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv("CONFIG_PATH"); env != "" {
		return env
	}
	return "assets/local.yaml"
}

func runJob(ctx context.Context, cfgPath, name string) error {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	dbPool, err := pg.NewPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("initialize database pool: %w", err)
	}
	defer dbPool.Close()

	txManager := pg.NewTransactionManager(dbPool)
	templateRepo := postgres.NewTemplateRepository(dbPool)
	checklistRepo := postgres.NewChecklistRepository(dbPool)
	auditRepo := postgres.NewAuditRepository(dbPool)
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

	candidates := []struct {
		cfg config.JobConfig
		job jobs.Job
	}{
		{cfg.Scheduler.ImportChecklists, jobs.NewImportJob(directoryClient, checklistSvc, auditRepo, nil, logger, cfg.Scheduler.HiringWindowDays)},
		{cfg.Scheduler.LockExpired, jobs.NewLockExpiredJob(checklistSvc, nil, logger)},
		{cfg.Scheduler.SendNotifications, jobs.NewSendNotificationsJob(checklistSvc, directoryClient, dispatcher, nil, logger)},
		{cfg.Scheduler.RefreshManagers, jobs.NewRefreshManagersJob(checklistSvc, directoryClient, logger)},
		{cfg.Scheduler.PurgeAudit, jobs.NewPurgeAuditJob(auditRepo, nil, logger, cfg.Retention.AuditMaxLifetimeDays)},
	}

	runner := jobs.NewRunner(cfg.Tenants, pg.NewJobLock(dbPool, logger), nil, logger)
	for _, candidate := range candidates {
		if candidate.job.Name() != name {
			continue
		}

		maxHold := candidate.cfg.MaxHold
		if maxHold <= 0 {
			maxHold = 10 * time.Minute
		}
		summary, err := runner.Run(ctx, candidate.job, maxHold)
		if err != nil {
			return err
		}
		if summary.Skipped {
			fmt.Printf("job %s skipped: another pass holds the lock\n", name)
			return nil
		}
		fmt.Printf("job %s completed\n", name)
		for outcome, count := range summary.Outcomes {
			fmt.Printf("  %s: %d\n", outcome, count)
		}
		return nil
	}

	return fmt.Errorf("unknown job %q", name)
}
