package config

import "time"

type Storage struct {
	Database Database `envPrefix:"DATABASE_"`
}

type Database struct {
	// Path of the sqlite database keeping jobs, or "memory" to keep them in memory
	DSN          string        `env:"DSN" envDefault:"data.sqlite"`
	BusyTimeout  time.Duration `env:"BUSY_TIMEOUT,expand" envDefault:"5s"`
	MaxOpenConns int           `env:"MAX_OPEN_CONNS,expand" envDefault:"1"`
}
