package config

// LedgerConfig configures the SQLite run history.
type LedgerConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}
