package config

import "time"

type HTTP struct {
	BaseURL   string    `env:"BASE_URL,expand" envDefault:"/"`
	Address   string    `env:"ADDRESS,expand" envDefault:":3003"`
	BasicAuth BasicAuth `envPrefix:"BASIC_AUTH_"`
	RateLimit RateLimit `envPrefix:"RATE_LIMIT_"`
	// Origins allowed to call the api from a browser
	AllowedOrigins  []string      `env:"ALLOWED_ORIGINS,expand" envDefault:"*" envSeparator:","`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT,expand" envDefault:"10s"`
}

type BasicAuth struct {
	Username string `env:"USERNAME,expand"`
	Password string `env:"PASSWORD,expand"`
	// Leaves the metrics endpoint reachable without credentials
	PublicMetrics bool `env:"PUBLIC_METRICS,expand" envDefault:"false"`
}

// RateLimit bounds the number of jobs a client can submit
type RateLimit struct {
	Enabled      bool          `env:"ENABLED,expand" envDefault:"true"`
	TrustHeaders bool          `env:"TRUST_HEADERS,expand" envDefault:"false"`
	Interval     time.Duration `env:"INTERVAL,expand" envDefault:"10s"`
	MaxBurst     int           `env:"MAX_BURST,expand" envDefault:"5"`
	CacheSize    int           `env:"CACHE_SIZE,expand" envDefault:"1024"`
	CacheTTL     time.Duration `env:"CACHE_TTL,expand" envDefault:"1h"`
}
