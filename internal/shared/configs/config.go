package configs

// Config holds all configuration for the application.
type Config struct {
	Server  ServerConfig  `mapstructure:"server" validate:"required"`
	Log     LogConfig     `mapstructure:"log" validate:"required"`
	Storage StorageConfig `mapstructure:"storage" validate:"required"`
	Flush   FlushConfig   `mapstructure:"flush" validate:"required"`
	Query   QueryConfig   `mapstructure:"query" validate:"required"`
	Syslog  SyslogConfig  `mapstructure:"syslog" validate:"required"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port              int `mapstructure:"port" validate:"required,min=1,max=65535"`
	ReadHeaderTimeout int `mapstructure:"read_header_timeout" validate:"required,min=1"` // seconds
	ReadTimeout       int `mapstructure:"read_timeout" validate:"required,min=1"`        // seconds (headers+body)
	WriteTimeout      int `mapstructure:"write_timeout" validate:"required,min=1"`       // seconds (response)
	IdleTimeout       int `mapstructure:"idle_timeout" validate:"required,min=1"`        // seconds (keep-alive)
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"required"`
}

// StorageConfig holds embedded storage engine configuration.
type StorageConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// FlushConfig holds the buffer flush cycle configuration.
type FlushConfig struct {
	IntervalSeconds int `mapstructure:"interval_seconds" validate:"required,min=1"`
}

// QueryConfig holds query defaults.
type QueryConfig struct {
	TopLimit int `mapstructure:"top_limit" validate:"required,min=1"`
}

// SyslogConfig holds the UDP syslog listener configuration.
type SyslogConfig struct {
	Host string `mapstructure:"host" validate:"required"`
	Port int    `mapstructure:"port" validate:"required,min=1,max=65535"`
}
