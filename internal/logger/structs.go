package logger

// Console implements a console based logger.
type Console struct {
	Enabled          bool `mapstructure:"enabled" yaml:"enabled"`
	UseConsoleWriter bool `mapstructure:"useConsoleWriter" yaml:"useConsoleWriter"`
}

// LogFile implements a file based logger.
type LogFile struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" yaml:"path"`

	AccessLog        string `mapstructure:"access" yaml:"access"`
	AccessMaxSize    int    `mapstructure:"accessMaxSize" yaml:"accessMaxSize"`
	AccessMaxBackups int    `mapstructure:"accessMaxBackups" yaml:"accessMaxBackups"`
	AccessMaxAge     int    `mapstructure:"accessMaxAge" yaml:"accessMaxAge"`

	ErrorLog        string `mapstructure:"error" yaml:"error"`
	ErrorMaxSize    int    `mapstructure:"errorMaxSize" yaml:"errorMaxSize"`
	ErrorMaxBackups int    `mapstructure:"errorMaxBackups" yaml:"errorMaxBackups"`
	ErrorMaxAge     int    `mapstructure:"errorMaxAge" yaml:"errorMaxAge"`

	InfoLog        string `mapstructure:"info" yaml:"info"`
	InfoMaxSize    int    `mapstructure:"infoMaxSize" yaml:"infoMaxSize"`
	InfoMaxBackups int    `mapstructure:"infoMaxBackups" yaml:"infoMaxBackups"`
	InfoMaxAge     int    `mapstructure:"infoMaxAge" yaml:"infoMaxAge"`

	TraceLog        string `mapstructure:"trace" yaml:"trace"`
	TraceMaxSize    int    `mapstructure:"traceMaxSize" yaml:"traceMaxSize"`
	TraceMaxBackups int    `mapstructure:"traceMaxBackups" yaml:"traceMaxBackups"`
	TraceMaxAge     int    `mapstructure:"traceMaxAge" yaml:"traceMaxAge"`

	WarnLog        string `mapstructure:"warn" yaml:"warn"`
	WarnMaxSize    int    `mapstructure:"warnMaxSize" yaml:"warnMaxSize"`
	WarnMaxBackups int    `mapstructure:"warnMaxBackups" yaml:"warnMaxBackups"`
	WarnMaxAge     int    `mapstructure:"warnMaxAge" yaml:"warnMaxAge"`
}

// SQL configures the gorm query logger.
type SQL struct {
	// SlowThresholdMS logs queries slower than this at warn level. 0 disables it.
	SlowThresholdMS int `mapstructure:"slowThresholdMS" yaml:"slowThresholdMS"`
	// IgnoreRecordNotFound suppresses errors for empty lookups.
	IgnoreRecordNotFound bool `mapstructure:"ignoreRecordNotFound" yaml:"ignoreRecordNotFound"`
}

// Log implements the logger config.
type Log struct {
	LogLevel string `mapstructure:"logLevel" yaml:"logLevel"` // trace, debug, info, warn, error.
	LogEnv   string `mapstructure:"logEnv" yaml:"logEnv"`

	// EnableAccessLogToConsole if true, the webservice access log is written to the console.
	// Does not overrule flag Console.Enabled!
	// If Console.Enabled is false, still no access log output to the console will be shown.
	EnableAccessLogToConsole bool `mapstructure:"enableAccessLogToConsole" yaml:"enableAccessLogToConsole"`
	ReportCaller             bool `mapstructure:"reportCaller" yaml:"reportCaller"`
	DisableCheckAlive        bool `mapstructure:"disableCheckAlive" yaml:"disableCheckAlive"` // do not log /checkalive calls

	AppName     string `mapstructure:"appName" yaml:"appName"`
	ServiceName string `mapstructure:"serviceName" yaml:"serviceName"`

	// Console used mainly for docker and dev.
	Console Console `mapstructure:"console" yaml:"console"`

	// Rolling file logging.
	File LogFile `mapstructure:"file" yaml:"file"`

	SQL SQL `mapstructure:"sql" yaml:"sql"`
}
