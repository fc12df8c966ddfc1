package patcher

// Config holds configuration for the file patcher.
type Config struct {
	// Encodings is the prioritized list of encodings tried when reading a file.
	Encodings []string `mapstructure:"encodings" default:"utf-8,iso-8859-1"`
	// BinaryExtensions lists extensions that are never patched.
	BinaryExtensions []string `mapstructure:"binary_extensions" default:".png,.jpg,.jpeg,.gif,.bmp,.tga,.dds,.ico,.gr2,.lsf,.loca,.pak,.bin,.dat,.bnk,.wem,.ogg,.wav,.mp3,.ttf,.otf,.zip,.7z,.rar,.exe,.dll,.so"`
	// VCSDirs lists version-control directory names.
	VCSDirs []string `mapstructure:"vcs_dirs" default:".git,.svn,.hg,.bzr"`
	// ReservedName is the authoritative catalog file name, never patched.
	ReservedName string `mapstructure:"reserved_name" default:"english.xml"`
	// Backup enables `.backup` copies of rewritten files.
	Backup bool `mapstructure:"backup" default:"true"`
}

// DefaultConfig returns the configuration used when none is loaded.
func DefaultConfig() Config {
	return Config{
		Encodings:        []string{"utf-8", "iso-8859-1"},
		BinaryExtensions: []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tga", ".dds", ".ico", ".gr2", ".lsf", ".loca", ".pak", ".bin", ".dat", ".bnk", ".wem", ".ogg", ".wav", ".mp3", ".ttf", ".otf", ".zip", ".7z", ".rar", ".exe", ".dll", ".so"},
		VCSDirs:          []string{".git", ".svn", ".hg", ".bzr"},
		ReservedName:     "english.xml",
		Backup:           true,
	}
}
