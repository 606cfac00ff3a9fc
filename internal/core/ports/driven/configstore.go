package driven

// ConfigStore holds settings under dotted "section.key" names. Values may be
// typed (from TOML) or strings (from the environment); the typed getters
// coerce strings and return the zero value for anything they cannot read.
type ConfigStore interface {
	// Get returns the raw value and whether the key is set.
	Get(key string) (any, bool)

	// GetString returns a string value, or "" for other types.
	GetString(key string) string

	// GetInt returns an integer value, parsing strings.
	GetInt(key string) int

	// GetBool returns a boolean value, parsing strings.
	GetBool(key string) bool

	// GetStringSlice returns a list value. Strings are split on commas.
	GetStringSlice(key string) []string

	// Set stores a value and persists it.
	Set(key string, value any) error

	// Save persists the stored values.
	Save() error

	// Load rereads persisted values, replacing the stored ones.
	Load() error

	// Path returns where values are persisted.
	Path() string
}
