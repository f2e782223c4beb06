package config

const (
	defaultSourceDir    = "inventories"
	defaultOutputDir    = "package"
	defaultLogDir       = "~/.local/share/verifier/logs"
	defaultIndexDriver  = DriverSQLite
	defaultIndexPath    = "restored.db"
	defaultCacheSize    = 4096
	defaultHiddenPrefix = "."
	defaultLogFormat    = "console"
	defaultLogLevel     = "info"
)

var defaultExcludes = []string{"Thumbs.db", ".DS_Store"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	excludes := make([]string, len(defaultExcludes))
	copy(excludes, defaultExcludes)
	return Config{
		Paths: Paths{
			SourceDir: defaultSourceDir,
			OutputDir: defaultOutputDir,
			LogDir:    defaultLogDir,
		},
		Index: Index{
			Driver:    defaultIndexDriver,
			Path:      defaultIndexPath,
			CacheSize: defaultCacheSize,
		},
		Matching: Matching{
			Excludes:     excludes,
			HiddenPrefix: defaultHiddenPrefix,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
