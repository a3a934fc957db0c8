package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultProvider           = "eastmoney"
	DefaultQuoteURL           = "https://push2.eastmoney.com/api/qt/stock/trends2/get"
	DefaultKlineURL           = "https://push2his.eastmoney.com/api/qt/stock/kline/get"
	DefaultSinaURL            = "https://hq.sinajs.cn/list="
	DefaultAPITimeout         = 8 * time.Second
	DefaultBreakerFailures    = 10
	DefaultBreakerOpenTimeout = 30 * time.Second
	DefaultPollInterval       = 3 * time.Second
	DefaultPollTimeout        = 8 * time.Second
	DefaultPollConcurrency    = 16
	DefaultWatchlistDir       = "~/.stockMonitor"
	DefaultGroupsFile         = "groups.json"
	DefaultCSVFile            = "stocks.csv"
	DefaultGroup              = "自选"
	DefaultDriver             = "none"
	DefaultSQLitePath         = "~/.stockMonitor/history.db"
	DefaultDBPort             = 5432
	DefaultDBSSLMode          = "prefer"
	DefaultMaxConns           = 10
	DefaultMinConns           = 2
	DefaultBatchSize          = 500
	DefaultFlushInterval      = 5 * time.Second
	DefaultBufferSize         = 64
	DefaultServerAddr         = ":8080"
	DefaultServerMode         = "release"
	DefaultUpColor            = "red"
	DefaultDownColor          = "green"
	DefaultFlatColor          = "gray"
	DefaultLogLevel           = "info"
	DefaultLogFormat          = "text"
)

func (c *Config) applyDefaults() {
	// API defaults
	if c.API.Provider == "" {
		c.API.Provider = DefaultProvider
	}
	if c.API.QuoteURL == "" {
		c.API.QuoteURL = DefaultQuoteURL
	}
	if c.API.KlineURL == "" {
		c.API.KlineURL = DefaultKlineURL
	}
	if c.API.SinaURL == "" {
		c.API.SinaURL = DefaultSinaURL
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = DefaultAPITimeout
	}
	if c.API.Burst == 0 {
		c.API.Burst = 1
	}
	if c.API.Breaker.ConsecutiveFailures == 0 {
		c.API.Breaker.ConsecutiveFailures = DefaultBreakerFailures
	}
	if c.API.Breaker.OpenTimeout == 0 {
		c.API.Breaker.OpenTimeout = DefaultBreakerOpenTimeout
	}

	// Poller defaults
	if c.Poller.Interval == 0 {
		c.Poller.Interval = DefaultPollInterval
	}
	if c.Poller.Timeout == 0 {
		c.Poller.Timeout = DefaultPollTimeout
	}
	if c.Poller.Concurrency == 0 {
		c.Poller.Concurrency = DefaultPollConcurrency
	}

	// Watchlist defaults
	if c.Watchlist.Dir == "" {
		c.Watchlist.Dir = DefaultWatchlistDir
	}
	if c.Watchlist.GroupsFile == "" {
		c.Watchlist.GroupsFile = DefaultGroupsFile
	}
	if c.Watchlist.CSVFile == "" {
		c.Watchlist.CSVFile = DefaultCSVFile
	}
	if c.Watchlist.DefaultGroup == "" {
		c.Watchlist.DefaultGroup = DefaultGroup
	}

	// Database defaults
	if c.Database.Driver == "" {
		c.Database.Driver = DefaultDriver
	}
	if c.Database.SQLite.Path == "" {
		c.Database.SQLite.Path = DefaultSQLitePath
	}
	applyDBDefaults(&c.Database.Postgres)

	// Writer defaults
	if c.Writer.BatchSize == 0 {
		c.Writer.BatchSize = DefaultBatchSize
	}
	if c.Writer.FlushInterval == 0 {
		c.Writer.FlushInterval = DefaultFlushInterval
	}
	if c.Writer.BufferSize == 0 {
		c.Writer.BufferSize = DefaultBufferSize
	}

	// Server defaults
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultServerAddr
	}
	if c.Server.Mode == "" {
		c.Server.Mode = DefaultServerMode
	}

	// Display defaults
	if c.Display.UpColor == "" {
		c.Display.UpColor = DefaultUpColor
	}
	if c.Display.DownColor == "" {
		c.Display.DownColor = DefaultDownColor
	}
	if c.Display.FlatColor == "" {
		c.Display.FlatColor = DefaultFlatColor
	}

	// Log defaults
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
