package config

import "time"

// Config is the root configuration.
type Config struct {
	API       APIConfig       `yaml:"api"`
	Poller    PollerConfig    `yaml:"poller"`
	Watchlist WatchlistConfig `yaml:"watchlist"`
	Database  DatabaseConfig  `yaml:"database"`
	Writer    WriterConfig    `yaml:"writer"`
	Server    ServerConfig    `yaml:"server"`
	Display   DisplayConfig   `yaml:"display"`
	Log       LogConfig       `yaml:"log"`
}

// APIConfig holds quote upstream settings.
type APIConfig struct {
	Provider  string        `yaml:"provider"` // eastmoney or sina
	QuoteURL  string        `yaml:"quote_url"`
	KlineURL  string        `yaml:"kline_url"`
	SinaURL   string        `yaml:"sina_url"`
	Timeout   time.Duration `yaml:"timeout"`
	RateLimit float64       `yaml:"rate_limit"` // requests per second, 0 = unlimited
	Burst     int           `yaml:"burst"`
	Breaker   BreakerConfig `yaml:"breaker"`
}

// BreakerConfig holds circuit breaker settings.
type BreakerConfig struct {
	Enabled             bool          `yaml:"enabled"`
	ConsecutiveFailures uint32        `yaml:"consecutive_failures"`
	OpenTimeout         time.Duration `yaml:"open_timeout"`
}

// PollerConfig holds quote poller settings.
type PollerConfig struct {
	Interval    time.Duration `yaml:"interval"`
	Timeout     time.Duration `yaml:"timeout"`
	Concurrency int           `yaml:"concurrency"`
}

// WatchlistConfig locates the group files.
type WatchlistConfig struct {
	Dir          string `yaml:"dir"`
	GroupsFile   string `yaml:"groups_file"`
	CSVFile      string `yaml:"csv_file"`
	DefaultGroup string `yaml:"default_group"`
	Watch        bool   `yaml:"watch"`
}

// DatabaseConfig selects the quote history store.
type DatabaseConfig struct {
	Driver   string       `yaml:"driver"` // none, sqlite or postgres
	SQLite   SQLiteConfig `yaml:"sqlite"`
	Postgres DBConfig     `yaml:"postgres"`
}

// SQLiteConfig holds the embedded store location.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// DBConfig holds a single Postgres connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// WriterConfig holds history writer settings.
type WriterConfig struct {
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
	BufferSize    int           `yaml:"buffer_size"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Addr string `yaml:"addr"`
	Mode string `yaml:"mode"` // gin mode: release, debug or test
}

// DisplayConfig maps row trends to colors for API consumers.
type DisplayConfig struct {
	UpColor   string `yaml:"up_color"`
	DownColor string `yaml:"down_color"`
	FlatColor string `yaml:"flat_color"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}
