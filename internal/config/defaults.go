package config

// DefaultExcludes are glob patterns excluded from scanning by default.
var DefaultExcludes = []string{
	"vendor/**",
	"node_modules/**",
	".git/**",
	"dist/**",
	"build/**",
	"target/**",
	"__pycache__/**",
	".venv/**",
	"venv/**",
	"*.min.js",
	"*.lock",
	"go.sum",
	"package-lock.json",
	"yarn.lock",
}

// DefaultMaxFileSize is the largest file the scanner will fetch (1 MB).
const DefaultMaxFileSize int64 = 1 << 20

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		DBPath:      ".meshmap/meshmap.db",
		Port:        8080,
		LogLevel:    "info",
		Include:     []string{"**"},
		Exclude:     DefaultExcludes,
		MaxFileSize: DefaultMaxFileSize,
	}
}
