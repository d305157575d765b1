package config

import (
	"fmt"
	"strings"
	"time"

	libconfig "github.com/watchhill101/smartCharging-sub004/libs/config"
)

// HTTPConfig controls the listen address.
type HTTPConfig struct {
	Host string `yaml:"host" env:"CHARGING_HTTP_HOST"`
	Port string `yaml:"port" env:"CHARGING_HTTP_PORT"`
}

// LogConfig controls logger verbosity.
type LogConfig struct {
	Level string `yaml:"level" env:"CHARGING_LOG_LEVEL"`
}

// RedisConfig selects the session store. An empty addr keeps sessions
// in process memory.
type RedisConfig struct {
	Addr     string `yaml:"addr" env:"CHARGING_REDIS_ADDR"`
	Password string `yaml:"password" env:"CHARGING_REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"CHARGING_REDIS_DB"`
}

// PostgresConfig enables the durable session archive when a DSN is set.
type PostgresConfig struct {
	DSN string `yaml:"dsn" env:"CHARGING_POSTGRES_DSN"`
}

// NATSConfig enables lifecycle event publishing when an addr is set.
type NATSConfig struct {
	Addr          string `yaml:"addr" env:"CHARGING_NATS_ADDR"`
	SubjectPrefix string `yaml:"subjectPrefix" env:"CHARGING_NATS_SUBJECT_PREFIX"`
}

// ClientsConfig points at the optional coupon and notification gateway
// collaborators.
type ClientsConfig struct {
	CouponURL      string `yaml:"couponUrl" env:"CHARGING_COUPON_URL"`
	NotifierURL    string `yaml:"notifierUrl" env:"CHARGING_NOTIFIER_URL"`
	TimeoutSeconds int    `yaml:"timeoutSeconds" env:"CHARGING_CLIENT_TIMEOUT"`
}

// ChargingConfig tunes the lifecycle engine.
type ChargingConfig struct {
	TickSeconds              int     `yaml:"tickSeconds" env:"CHARGING_TICK_SECONDS"`
	AnomalySeconds           int     `yaml:"anomalySeconds" env:"CHARGING_ANOMALY_SECONDS"`
	GraceSeconds             int     `yaml:"graceSeconds" env:"CHARGING_GRACE_SECONDS"`
	SessionTTLHours          int     `yaml:"sessionTtlHours" env:"CHARGING_SESSION_TTL_HOURS"`
	NotificationHistoryLimit int     `yaml:"notificationHistoryLimit" env:"CHARGING_NOTIFICATION_HISTORY_LIMIT"`
	AnomalyHistoryLimit      int     `yaml:"anomalyHistoryLimit" env:"CHARGING_ANOMALY_HISTORY_LIMIT"`
	AutoStopOnCritical       bool    `yaml:"autoStopOnCritical" env:"CHARGING_AUTO_STOP_ON_CRITICAL"`
	DefaultPricePerKwh       float64 `yaml:"defaultPricePerKwh" env:"CHARGING_DEFAULT_PRICE_PER_KWH"`
}

// PileConfig seeds one pile into the registry.
type PileConfig struct {
	ID          string  `yaml:"id"`
	Name        string  `yaml:"name"`
	StationID   string  `yaml:"stationId"`
	StationName string  `yaml:"stationName"`
	MaxPowerKW  float64 `yaml:"maxPowerKw"`
	PricePerKwh float64 `yaml:"pricePerKwh"`
}

// RegistryConfig tunes the pile heartbeat monitor.
type RegistryConfig struct {
	HeartbeatCheckSeconds   int `yaml:"heartbeatCheckSeconds" env:"CHARGING_HEARTBEAT_CHECK_SECONDS"`
	HeartbeatTimeoutSeconds int `yaml:"heartbeatTimeoutSeconds" env:"CHARGING_HEARTBEAT_TIMEOUT_SECONDS"`
}

// Config defines charging service configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Log      LogConfig      `yaml:"log"`
	Redis    RedisConfig    `yaml:"redis"`
	Postgres PostgresConfig `yaml:"postgres"`
	NATS     NATSConfig     `yaml:"nats"`
	Clients  ClientsConfig  `yaml:"clients"`
	Charging ChargingConfig `yaml:"charging"`
	Piles    []PileConfig   `yaml:"piles"`
	Registry RegistryConfig `yaml:"registry"`
}

// Load reads configuration via the shared helper. Redis, Postgres, NATS
// and the outbound clients are all optional; the engine degrades to
// in-process fallbacks when they are left empty.
func Load() (*Config, error) {
	cfg := &Config{
		HTTP:    HTTPConfig{Host: "0.0.0.0", Port: "8001"},
		Log:     LogConfig{Level: "info"},
		Redis:   RedisConfig{DB: 1},
		NATS:    NATSConfig{SubjectPrefix: "charging"},
		Clients: ClientsConfig{TimeoutSeconds: 5},
		Charging: ChargingConfig{
			TickSeconds:              5,
			AnomalySeconds:           10,
			GraceSeconds:             3,
			SessionTTLHours:          24,
			NotificationHistoryLimit: 50,
			AnomalyHistoryLimit:      20,
			DefaultPricePerKwh:       1.5,
		},
		Piles:    defaultPiles(),
		Registry: RegistryConfig{HeartbeatCheckSeconds: 60, HeartbeatTimeoutSeconds: 600},
	}

	if err := libconfig.LoadConfig(cfg); err != nil {
		return nil, err
	}

	if len(cfg.Piles) == 0 {
		cfg.Piles = defaultPiles()
	}
	for i := range cfg.Piles {
		if cfg.Piles[i].PricePerKwh <= 0 {
			cfg.Piles[i].PricePerKwh = cfg.Charging.DefaultPricePerKwh
		}
	}
	return cfg, nil
}

func defaultPiles() []PileConfig {
	return []PileConfig{
		{ID: "pile_001", Name: "1号充电桩", StationID: "station_001", StationName: "市中心充电站", MaxPowerKW: 60, PricePerKwh: 1.5},
		{ID: "pile_002", Name: "2号充电桩", StationID: "station_001", StationName: "市中心充电站", MaxPowerKW: 60, PricePerKwh: 1.5},
		{ID: "pile_003", Name: "3号充电桩", StationID: "station_001", StationName: "市中心充电站", MaxPowerKW: 120, PricePerKwh: 1.8},
	}
}

// HTTPAddress returns host:port style.
func (c *Config) HTTPAddress() string {
	port := strings.TrimSpace(c.HTTP.Port)
	if port == "" {
		port = "8001"
	}
	return fmt.Sprintf("%s:%s", strings.TrimSpace(c.HTTP.Host), port)
}

// TickInterval returns the telemetry period.
func (c *Config) TickInterval() time.Duration {
	return secondsOr(c.Charging.TickSeconds, 5*time.Second)
}

// AnomalyInterval returns the detector period.
func (c *Config) AnomalyInterval() time.Duration {
	return secondsOr(c.Charging.AnomalySeconds, 10*time.Second)
}

// GraceDelay returns the finishing-to-completed delay.
func (c *Config) GraceDelay() time.Duration {
	return secondsOr(c.Charging.GraceSeconds, 3*time.Second)
}

// SessionTTL returns the store expiry of session records.
func (c *Config) SessionTTL() time.Duration {
	if c.Charging.SessionTTLHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.Charging.SessionTTLHours) * time.Hour
}

// ClientTimeout returns the outbound HTTP timeout.
func (c *Config) ClientTimeout() time.Duration {
	return secondsOr(c.Clients.TimeoutSeconds, 5*time.Second)
}

// HeartbeatCheckInterval returns the pile monitor sweep period.
func (c *Config) HeartbeatCheckInterval() time.Duration {
	return secondsOr(c.Registry.HeartbeatCheckSeconds, 60*time.Second)
}

// HeartbeatTimeout returns the silence after which a pile goes offline.
func (c *Config) HeartbeatTimeout() time.Duration {
	return secondsOr(c.Registry.HeartbeatTimeoutSeconds, 600*time.Second)
}

func secondsOr(value int, fallback time.Duration) time.Duration {
	if value <= 0 {
		return fallback
	}
	return time.Duration(value) * time.Second
}
