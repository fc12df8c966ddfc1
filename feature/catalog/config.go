package catalog

// Duplicate handling policies.
const (
	DuplicatesLastWins = "last-wins"
	DuplicatesError    = "error"
)

// Config holds configuration for catalog parsing.
type Config struct {
	// Element is the tag name of content entries.
	Element string `mapstructure:"element" default:"content"`
	// IDAttr is the attribute holding the entry id.
	IDAttr string `mapstructure:"id_attr" default:"contentuid"`
	// VersionAttr is the attribute holding the entry version.
	VersionAttr string `mapstructure:"version_attr" default:"version"`
	// Duplicates selects how repeated ids are handled (last-wins, error).
	Duplicates string `mapstructure:"duplicates" default:"last-wins"`
	// CacheTTLSeconds bounds how long the server reuses a parsed original catalog.
	CacheTTLSeconds int `mapstructure:"cache_ttl_seconds" default:"300"`
}

// withDefaults fills zero values so a bare Config{} behaves like the defaults.
func (c Config) withDefaults() Config {
	if c.Element == "" {
		c.Element = "content"
	}
	if c.IDAttr == "" {
		c.IDAttr = "contentuid"
	}
	if c.VersionAttr == "" {
		c.VersionAttr = "version"
	}
	if c.Duplicates == "" {
		c.Duplicates = DuplicatesLastWins
	}
	return c
}

// IsValidDuplicates checks if the configured duplicate policy is known.
func (c Config) IsValidDuplicates() bool {
	switch c.Duplicates {
	case "", DuplicatesLastWins, DuplicatesError:
		return true
	default:
		return false
	}
}
