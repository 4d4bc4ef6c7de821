// internal/utils/logger/config.go
package logger

type Config struct {
	LogFile     string
	Level       string // debug, info, warn, error
	MaxSize     int    // megabytes
	MaxAge      int    // days
	MaxBackups  int    // rotated files kept
	Compress    bool   // gzip rotated files
	Development bool
}

// DefaultConfig returns the configuration used when none is supplied.
func DefaultConfig() *Config {
	return &Config{
		LogFile:     "chainarb.log",
		Level:       "info",
		MaxSize:     100,
		MaxAge:      7,
		MaxBackups:  3,
		Compress:    true,
		Development: false,
	}
}
