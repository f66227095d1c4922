package config

const (
	defaultDataDir    = "~/.local/share/resonate/data"
	defaultLogDir     = "~/.local/share/resonate/logs"
	defaultSocketPath = "~/.local/share/resonate/resonated.sock"
	defaultLogFormat  = "console"
	defaultLogLevel   = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:    defaultDataDir,
			LogDir:     defaultLogDir,
			SocketPath: defaultSocketPath,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
