package logging

// Config contains the configurable items for this package
type Config struct {
	Environment    string `long:"environment" description:"dev (console output) or prod (json output)"`
	File           string `long:"file" description:"optional path of a rotated log file, in addition to stdout"`
	FileMaxSizeMB  int    `long:"file-max-size" description:"size in megabytes after which the log file is rotated"`
	FileMaxBackups int    `long:"file-max-backups" description:"number of rotated log files to keep"`
}

// NewDefaultConfig creates an instance of the package-specific configuration.
func NewDefaultConfig() Config {
	return Config{
		Environment:    "dev",
		FileMaxSizeMB:  100,
		FileMaxBackups: 3,
	}
}
