package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config はアプリケーション全体の設定を表現します。
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Database     DatabaseConfig     `yaml:"database"`
	Tenants      []string           `yaml:"tenants"`
	Directory    DirectoryConfig    `yaml:"directory"`
	Renderer     RendererConfig     `yaml:"renderer"`
	SMTP         SMTPConfig         `yaml:"smtp"`
	Notification NotificationConfig `yaml:"notification"`
	Scheduler    SchedulerConfig    `yaml:"scheduler"`
	Retention    RetentionConfig    `yaml:"retention"`
}

// ServerConfig は HTTP サーバーに関する設定です。
type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// DatabaseConfig は PostgreSQL 接続に関する設定です。
type DatabaseConfig struct {
	Host               string        `yaml:"host"`
	Port               int           `yaml:"port"`
	User               string        `yaml:"user"`
	Password           string        `yaml:"password"`
	Name               string        `yaml:"name"`
	SSLMode            string        `yaml:"ssl_mode"`
	MaxOpenConns       int           `yaml:"max_open_conns"`
	MaxIdleConns       int           `yaml:"max_idle_conns"`
	ConnMaxLifetime    time.Duration `yaml:"-"`
	ConnMaxIdleTime    time.Duration `yaml:"-"`
	ConnMaxLifetimeRaw string        `yaml:"conn_max_lifetime"`
	ConnMaxIdleTimeRaw string        `yaml:"conn_max_idle_time"`
}

// DirectoryConfig は外部 HR ディレクトリ API に関する設定です。
type DirectoryConfig struct {
	BaseURL    string        `yaml:"base_url"`
	Timeout    time.Duration `yaml:"-"`
	TimeoutRaw string        `yaml:"timeout"`
}

// RendererConfig は外部テンプレートレンダリング API に関する設定です。
type RendererConfig struct {
	BaseURL    string        `yaml:"base_url"`
	Timeout    time.Duration `yaml:"-"`
	TimeoutRaw string        `yaml:"timeout"`
}

// SMTPConfig はメール送信に関する設定です。
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// NotificationConfig は上長宛通知メールの内容に関する設定です。
type NotificationConfig struct {
	TemplateID string `yaml:"template_id"`
	Subject    string `yaml:"subject"`
	Sender     string `yaml:"sender"`
	SenderName string `yaml:"sender_name"`
}

// JobConfig は 1 つの定期ジョブの設定です。Cron は robfig/cron の 5 フィールド形式です。
type JobConfig struct {
	Cron       string        `yaml:"cron"`
	Enabled    bool          `yaml:"enabled"`
	MaxHold    time.Duration `yaml:"-"`
	MaxHoldRaw string        `yaml:"max_hold"`
}

// SchedulerConfig は定期ジョブ群の設定です。HiringWindowDays は
// import_checklists が着任日を遡って照会する日数です。
type SchedulerConfig struct {
	ImportChecklists  JobConfig `yaml:"import_checklists"`
	LockExpired       JobConfig `yaml:"lock_expired"`
	SendNotifications JobConfig `yaml:"send_notifications"`
	RefreshManagers   JobConfig `yaml:"refresh_managers"`
	PurgeAudit        JobConfig `yaml:"purge_audit"`
	HiringWindowDays  int       `yaml:"hiring_window_days"`
}

// RetentionConfig は監査行の保持期間に関する設定です。
type RetentionConfig struct {
	AuditMaxLifetimeDays int `yaml:"audit_max_lifetime_days"`
}

// Load は指定されたパスから設定ファイルを読み込みます。
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := cfg.validateAndNormalize(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validateAndNormalize() error {
	if c.Server.ListenAddr == "" {
		return fmt.Errorf("config: server.listen_addr must be set")
	}

	if err := c.Database.validateAndNormalize(); err != nil {
		return err
	}

	for i, t := range c.Tenants {
		c.Tenants[i] = strings.TrimSpace(t)
		if c.Tenants[i] == "" {
			return fmt.Errorf("config: tenants must not contain empty entries")
		}
	}

	if c.Directory.BaseURL == "" {
		return fmt.Errorf("config: directory.base_url must be set")
	}
	timeout, err := parseDurationAllowEmpty(c.Directory.TimeoutRaw)
	if err != nil {
		return fmt.Errorf("config: directory.timeout: %w", err)
	}
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	c.Directory.Timeout = timeout

	if c.Renderer.BaseURL == "" {
		return fmt.Errorf("config: renderer.base_url must be set")
	}
	timeout, err = parseDurationAllowEmpty(c.Renderer.TimeoutRaw)
	if err != nil {
		return fmt.Errorf("config: renderer.timeout: %w", err)
	}
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	c.Renderer.Timeout = timeout

	if c.SMTP.Host == "" {
		return fmt.Errorf("config: smtp.host must be set")
	}
	if c.SMTP.Port == 0 {
		c.SMTP.Port = 587
	}

	if c.Notification.TemplateID == "" {
		return fmt.Errorf("config: notification.template_id must be set")
	}
	if c.Notification.Sender == "" {
		return fmt.Errorf("config: notification.sender must be set")
	}
	if c.Notification.Subject == "" {
		c.Notification.Subject = "Onboarding checklist for your new employee"
	}

	jobs := []struct {
		name string
		job  *JobConfig
	}{
		{"import_checklists", &c.Scheduler.ImportChecklists},
		{"lock_expired", &c.Scheduler.LockExpired},
		{"send_notifications", &c.Scheduler.SendNotifications},
		{"refresh_managers", &c.Scheduler.RefreshManagers},
		{"purge_audit", &c.Scheduler.PurgeAudit},
	}
	for _, j := range jobs {
		if err := j.job.validateAndNormalize(); err != nil {
			return fmt.Errorf("config: scheduler.%s: %w", j.name, err)
		}
	}

	if c.Scheduler.HiringWindowDays <= 0 {
		c.Scheduler.HiringWindowDays = 30
	}

	if c.Retention.AuditMaxLifetimeDays <= 0 {
		c.Retention.AuditMaxLifetimeDays = 90
	}

	return nil
}

func (d *DatabaseConfig) validateAndNormalize() error {
	if d.Host == "" {
		return fmt.Errorf("config: database.host must be set")
	}
	if d.Port == 0 {
		return fmt.Errorf("config: database.port must be set")
	}
	if d.User == "" {
		return fmt.Errorf("config: database.user must be set")
	}
	if d.Password == "" {
		return fmt.Errorf("config: database.password must be set")
	}
	if d.Name == "" {
		return fmt.Errorf("config: database.name must be set")
	}
	if d.SSLMode == "" {
		d.SSLMode = "disable"
	}

	lifetime, err := parseDurationAllowEmpty(d.ConnMaxLifetimeRaw)
	if err != nil {
		return fmt.Errorf("config: database.conn_max_lifetime: %w", err)
	}
	d.ConnMaxLifetime = lifetime

	idleTime, err := parseDurationAllowEmpty(d.ConnMaxIdleTimeRaw)
	if err != nil {
		return fmt.Errorf("config: database.conn_max_idle_time: %w", err)
	}
	d.ConnMaxIdleTime = idleTime

	return nil
}

func (j *JobConfig) validateAndNormalize() error {
	if !j.Enabled {
		return nil
	}
	if j.Cron == "" {
		return fmt.Errorf("cron must be set when enabled")
	}

	maxHold, err := parseDurationAllowEmpty(j.MaxHoldRaw)
	if err != nil {
		return fmt.Errorf("max_hold: %w", err)
	}
	if maxHold == 0 {
		maxHold = 10 * time.Minute
	}
	j.MaxHold = maxHold

	return nil
}

func parseDurationAllowEmpty(raw string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	return d, nil
}

// DSN は pgx 用の接続文字列を返します。認証情報は URL エスケープされます。
func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     d.Name,
		RawQuery: "sslmode=" + d.SSLMode,
	}
	return u.String()
}
