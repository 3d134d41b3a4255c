// pkg/config/types.go
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
)

// Config is the root configuration structure for background-utils.
// It aggregates all other specific configuration structs.
type Config struct {
	Log      LogConfig      `description:"Logging configuration" koanf:"log"`
	Manager  ManagerConfig  `description:"Service manager configuration" koanf:"manager"`
	Control  ControlConfig  `description:"Control endpoint configuration" koanf:"control"`
	Notify   NotifyConfig   `description:"Notification configuration" koanf:"notify"`
	Services ServicesConfig `description:"Per-service configuration" koanf:"services"`
}

// LogConfig holds logging related configuration.
type LogConfig struct {
	Level       string `description:"Log level: trace|debug|info|warn|error" koanf:"level" validate:"oneof=trace debug info warn error"`
	Format      string `description:"Log format: json | text" koanf:"format" validate:"oneof=text json"`
	FileEnabled bool   `description:"Also write logs to the workspace log file" koanf:"file_enabled"`
}

// ManagerConfig holds configuration for the service lifecycle manager.
type ManagerConfig struct {
	// ShutdownTimeout is the shared grace period for stopping all services.
	ShutdownTimeout time.Duration `description:"Grace period for cooperative shutdown" koanf:"shutdown_timeout" validate:"min=100ms"`
}

// ControlConfig holds configuration for the local control endpoint.
type ControlConfig struct {
	Enabled bool   `description:"Enable the local HTTP control endpoint" koanf:"enabled"`
	Addr    string `description:"Control endpoint listen address" koanf:"addr" validate:"hostname_port"`
}

// NotifyConfig selects the desktop notification backend.
type NotifyConfig struct {
	Backend string `description:"Notification backend: desktop | log" koanf:"backend" validate:"oneof=desktop log"`
}

// ServicesConfig aggregates the per-service configuration blocks.
type ServicesConfig struct {
	Heartbeat HeartbeatConfig `description:"Heartbeat service" koanf:"heartbeat"`
	Battery   BatteryConfig   `description:"Battery monitor service" koanf:"battery"`
	Mail      MailConfig      `description:"Mailbox watcher service" koanf:"mail"`
	Netwatch  NetwatchConfig  `description:"Network reachability service" koanf:"netwatch"`
	Janitor   JanitorConfig   `description:"Workspace janitor service" koanf:"janitor"`
}

// HeartbeatConfig configures the periodic heartbeat logger.
type HeartbeatConfig struct {
	Enabled  bool          `description:"Enable the heartbeat service" koanf:"enabled"`
	Interval time.Duration `description:"Interval between heartbeat ticks" koanf:"interval" validate:"min=100ms"`
}

// BatteryConfig configures the battery monitor.
type BatteryConfig struct {
	Enabled          bool          `description:"Enable the battery monitor" koanf:"enabled"`
	Interval         time.Duration `description:"Polling interval" koanf:"interval" validate:"min=1s"`
	WarnBelowPercent int           `description:"Warn when discharging below this percentage" koanf:"warn_below_percent" validate:"min=1,max=100"`
}

// MailConfig configures the IMAP mailbox watcher.
type MailConfig struct {
	Enabled  bool          `description:"Enable the mailbox watcher" koanf:"enabled"`
	Interval time.Duration `description:"Polling interval" koanf:"interval" validate:"min=5s"`
	Server   string        `description:"IMAP server address (host:port, TLS)" koanf:"server"`
	Username string        `description:"IMAP account username" koanf:"username"`
	Password string        `description:"IMAP account password or app password" koanf:"password"`
	Mailbox  string        `description:"Mailbox to watch" koanf:"mailbox"`
}

// NetwatchConfig configures the network reachability probe.
type NetwatchConfig struct {
	Enabled  bool          `description:"Enable the network watcher" koanf:"enabled"`
	Interval time.Duration `description:"Probe interval" koanf:"interval" validate:"min=1s"`
	Host     string        `description:"Host to probe with ICMP echo" koanf:"host"`
	Count    int           `description:"Echo requests per probe" koanf:"count" validate:"min=1,max=10"`
}

// JanitorConfig configures the workspace janitor.
type JanitorConfig struct {
	Enabled   bool          `description:"Enable the workspace janitor" koanf:"enabled"`
	Schedule  string        `description:"Cron schedule for cleanup runs" koanf:"schedule"`
	Retention time.Duration `description:"Delete workspace files older than this" koanf:"retention" validate:"min=1h"`
}

var validate = validator.New()

// Validate checks the configuration for invalid values. It must pass before
// any service is started; a malformed configuration is a startup failure,
// never a runtime surprise.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// The cron format is checked by the same parser the janitor runs with,
	// so anything accepted here is guaranteed to schedule.
	if c.Services.Janitor.Schedule != "" {
		if _, err := cron.ParseStandard(c.Services.Janitor.Schedule); err != nil {
			return fmt.Errorf("invalid janitor schedule %q: %w", c.Services.Janitor.Schedule, err)
		}
	}

	return nil
}
