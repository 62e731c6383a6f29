package snapshot

import (
	"time"

	"github.com/ogeth777/baseworld/internal/config/encoding"
	"github.com/ogeth777/baseworld/internal/logging"
)

const (
	namedLogger = "snapshot"

	BackendFile    = "file"
	BackendLevelDB = "leveldb"
)

// Config represents the configuration of the snapshot engine.
type Config struct {
	Level    encoding.LogLevel `long:"log-level"`
	Backend  string            `long:"backend" description:"where snapshots are written: file or leveldb"`
	Path     string            `long:"path" description:"snapshot file, or leveldb directory, relative paths are resolved from the home directory"`
	Debounce encoding.Duration `long:"debounce" description:"delay between the first unsaved mutation and the write, mutations in between are coalesced"`
}

// NewDefaultConfig creates an instance of the package specific configuration.
func NewDefaultConfig() Config {
	return Config{
		Level:    encoding.LogLevel{Level: logging.InfoLevel},
		Backend:  BackendFile,
		Path:     "state/snapshot.json",
		Debounce: encoding.Duration{Duration: 2 * time.Second},
	}
}
