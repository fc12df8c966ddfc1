package convert

// Config holds configuration for the external conversion tool.
type Config struct {
	// Tool is the path or name of the conversion binary.
	Tool string `mapstructure:"tool" default:"divine"`
	// Game is the game profile passed to the tool.
	Game string `mapstructure:"game" default:"bg3"`
	// LogLevel is passed to the tool's --loglevel flag.
	LogLevel string `mapstructure:"log_level" default:"error"`
	// TimeoutSeconds bounds a single conversion.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"120"`
	// MetaFiles lists file names that are never converted.
	MetaFiles []string `mapstructure:"meta_files" default:"meta.lsx,meta.lsj"`
	// DeleteOriginal removes the source after a successful conversion.
	DeleteOriginal bool `mapstructure:"delete_original" default:"false"`
}
