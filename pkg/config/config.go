// pkg/config/config.go
package config

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Manager handles loading and accessing application configuration.
// Each Manager owns its own koanf instance; callers share one Manager
// through the command context rather than a package-level singleton.
type Manager struct {
	koanfInstance *koanf.Koanf
	currentConfig Config
	configFile    string
	mu            sync.RWMutex // protects currentConfig during runtime reloads
}

// NewManager creates a new configuration Manager.
func NewManager() *Manager {
	return &Manager{
		koanfInstance: koanf.New("."),
	}
}

// DefaultConfig returns a new Config struct populated with hardcoded default
// values. These serve as the baseline configuration if no other sources
// override them.
func DefaultConfig() Config {
	return Config{
		Log: LogConfig{
			Level:       "info",
			Format:      "text",
			FileEnabled: true,
		},
		Manager: ManagerConfig{
			ShutdownTimeout: 10 * time.Second,
		},
		Control: ControlConfig{
			Enabled: true,
			Addr:    "127.0.0.1:8372",
		},
		Notify: NotifyConfig{
			Backend: "desktop",
		},
		Services: ServicesConfig{
			Heartbeat: HeartbeatConfig{
				Enabled:  true,
				Interval: 5 * time.Second,
			},
			Battery: BatteryConfig{
				Enabled:          true,
				Interval:         60 * time.Second,
				WarnBelowPercent: 15,
			},
			Mail: MailConfig{
				Enabled:  false,
				Interval: 60 * time.Second,
				Server:   "imap.gmail.com:993",
				Mailbox:  "INBOX",
			},
			Netwatch: NetwatchConfig{
				Enabled:  false,
				Interval: 30 * time.Second,
				Host:     "1.1.1.1",
				Count:    1,
			},
			Janitor: JanitorConfig{
				Enabled:   true,
				Schedule:  "0 3 * * *",
				Retention: 30 * 24 * time.Hour,
			},
		},
	}
}

// Load loads configuration from all sources in priority order and validates
// the merged result. It populates the manager's currentConfig.
func (m *Manager) Load(flags *pflag.FlagSet, configFile string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sources := DefaultSources(configFile, flags)
	sort.SliceStable(sources, func(i, j int) bool {
		return sources[i].Priority() < sources[j].Priority()
	})

	for _, src := range sources {
		if err := src.Load(m.koanfInstance); err != nil {
			return fmt.Errorf("load %s configuration: %w", src.Name(), err)
		}
	}

	var newCfg Config
	if err := m.koanfInstance.UnmarshalWithConf("", &newCfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return fmt.Errorf("unmarshal merged configuration: %w", err)
	}

	if err := newCfg.Validate(); err != nil {
		return err
	}

	m.currentConfig = newCfg
	m.configFile = configFile
	return nil
}

// Get returns a copy of the current configuration.
func (m *Manager) Get() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cfgCopy := m.currentConfig
	return cfgCopy
}

// ConfigFile returns the config file path this manager was loaded from,
// empty when no file was given.
func (m *Manager) ConfigFile() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.configFile
}

// Raw returns a copy of the merged configuration tree. Used by `config show`
// to render the effective configuration.
func (m *Manager) Raw() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.koanfInstance.Raw()
}

// DefaultConfigAsMap converts the DefaultConfig struct to a
// map[string]interface{} for koanf's confmap.Provider. This is a bit manual
// but ensures koanf knows all keys. Durations are stored as strings so the
// merged tree renders readable YAML; the duration decode hook turns them
// back into time.Duration on unmarshal.
func DefaultConfigAsMap() map[string]interface{} {
	def := DefaultConfig()
	return map[string]interface{}{
		// Log configuration
		"log.level":        def.Log.Level,
		"log.format":       def.Log.Format,
		"log.file_enabled": def.Log.FileEnabled,

		// Manager configuration
		"manager.shutdown_timeout": def.Manager.ShutdownTimeout.String(),

		// Control endpoint configuration
		"control.enabled": def.Control.Enabled,
		"control.addr":    def.Control.Addr,

		// Notification configuration
		"notify.backend": def.Notify.Backend,

		// Service configuration
		"services.heartbeat.enabled":  def.Services.Heartbeat.Enabled,
		"services.heartbeat.interval": def.Services.Heartbeat.Interval.String(),

		"services.battery.enabled":            def.Services.Battery.Enabled,
		"services.battery.interval":           def.Services.Battery.Interval.String(),
		"services.battery.warn_below_percent": def.Services.Battery.WarnBelowPercent,

		"services.mail.enabled":  def.Services.Mail.Enabled,
		"services.mail.interval": def.Services.Mail.Interval.String(),
		"services.mail.server":   def.Services.Mail.Server,
		"services.mail.username": def.Services.Mail.Username,
		"services.mail.password": def.Services.Mail.Password,
		"services.mail.mailbox":  def.Services.Mail.Mailbox,

		"services.netwatch.enabled":  def.Services.Netwatch.Enabled,
		"services.netwatch.interval": def.Services.Netwatch.Interval.String(),
		"services.netwatch.host":     def.Services.Netwatch.Host,
		"services.netwatch.count":    def.Services.Netwatch.Count,

		"services.janitor.enabled":   def.Services.Janitor.Enabled,
		"services.janitor.schedule":  def.Services.Janitor.Schedule,
		"services.janitor.retention": def.Services.Janitor.Retention.String(),
	}
}

// BindFlags defines command-line flags corresponding to configuration
// settings. These flags allow overriding config file / environment variable
// settings. This function should be called when setting up cobra commands.
func BindFlags(flags *pflag.FlagSet) {
	var flagvar bool
	flags.BoolVar(&flagvar, "debug", false, "Enable debug logging")

	// The main --config / -c flag for specifying the config file path
	// is defined directly on the root cobra command's PersistentFlags.
}
