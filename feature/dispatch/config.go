package dispatch

// Config holds configuration for scanning and the worker pool.
type Config struct {
	// Workers bounds concurrent units. Zero means runtime.NumCPU().
	Workers int `mapstructure:"workers" default:"0"`
	// ChunkSize is the number of files submitted to the pool at once.
	ChunkSize int `mapstructure:"chunk_size" default:"2048"`
	// Recursive descends into subdirectories.
	Recursive bool `mapstructure:"recursive" default:"true"`
	// ExcludeDirs lists directory names never descended into.
	ExcludeDirs []string `mapstructure:"exclude_dirs" default:".git,.svn,.hg,.bzr,.locafix,.vs,.idea,.vscode"`
	// Ignore lists doublestar globs, relative to the root, of files to leave out.
	Ignore []string `mapstructure:"ignore" default:""`
	// ReservedName is the authoritative catalog file name, never scanned.
	ReservedName string `mapstructure:"reserved_name" default:"english.xml"`
}

// DefaultConfig returns the configuration used when none is loaded.
func DefaultConfig() Config {
	return Config{
		ChunkSize:    2048,
		Recursive:    true,
		ExcludeDirs:  []string{".git", ".svn", ".hg", ".bzr", StateDir, ".vs", ".idea", ".vscode"},
		ReservedName: "english.xml",
	}
}
