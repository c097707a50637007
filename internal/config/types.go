package config

// RepoTarget identifies one repository meshmap scans. Path points at a
// local checkout; FullName is the logical "owner/name" identity used for
// service attribution.
type RepoTarget struct {
	FullName string `yaml:"full_name" koanf:"full_name"`
	Path     string `yaml:"path" koanf:"path"`
	Branch   string `yaml:"branch" koanf:"branch"`
	Subpath  string `yaml:"subpath" koanf:"subpath"`
}

// Config is the top-level meshmap configuration, corresponding to .meshmap.yml.
type Config struct {
	DBPath      string       `yaml:"db_path" koanf:"db_path"`
	Port        int          `yaml:"port" koanf:"port"`
	LogLevel    string       `yaml:"log_level" koanf:"log_level"`
	AllowAll    bool         `yaml:"allow_all_origins" koanf:"allow_all_origins"`
	Repos       []RepoTarget `yaml:"repos" koanf:"repos"`
	Include     []string     `yaml:"include" koanf:"include"`
	Exclude     []string     `yaml:"exclude" koanf:"exclude"`
	MaxFileSize int64        `yaml:"max_file_size" koanf:"max_file_size"`
}
