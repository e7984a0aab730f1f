// Database configuration.
package forest

import (
	"github.com/rs/zerolog"

	"github.com/jpl-au/forest/engine"
)

// Checksum algorithms for Config.Checksum.
const (
	ChecksumXXH3    = engine.ChecksumXXH3
	ChecksumFNV1a   = engine.ChecksumFNV1a
	ChecksumBlake2b = engine.ChecksumBlake2b
)

// Config holds database configuration options. The zero value opens a
// writable database with default settings and no logging.
type Config struct {
	Checksum      int             // Record checksum algorithm for new files (default xxh3)
	Compress      bool            // zstd-compress document bodies
	SyncWrites    bool            // fsync after every write
	ReadOnly      bool            // Open without write access; never creates
	MaxRecordSize int             // Maximum encoded record size (default 16MB)
	Logger        *zerolog.Logger // nil discards
}

func (c Config) logger() zerolog.Logger {
	if c.Logger == nil {
		return zerolog.Nop()
	}
	return *c.Logger
}

func (c Config) engine() engine.Config {
	return engine.Config{
		Checksum:      c.Checksum,
		Compress:      c.Compress,
		SyncWrites:    c.SyncWrites,
		ReadOnly:      c.ReadOnly,
		MaxRecordSize: c.MaxRecordSize,
		Logger:        c.logger().With().Str("component", "engine").Logger(),
	}
}
