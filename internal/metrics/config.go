package metrics

// Config represents the configuration of the metric package.
type Config struct {
	Enabled bool   `long:"enabled" description:"expose prometheus metrics on the API server"`
	Path    string `long:"path" description:"http path the metrics are served on"`
}

// NewDefaultConfig creates an instance of the package specific configuration.
func NewDefaultConfig() Config {
	return Config{
		Enabled: true,
		Path:    "/metrics",
	}
}
