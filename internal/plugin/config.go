package plugin

// Config tunes how the registry derives effect ids.
type Config struct {
	// IDSeparator joins name and version and replaces spaces in the id.
	IDSeparator string
	// SuffixStart is the first numeric suffix appended on collision.
	SuffixStart int
}

// DefaultConfig returns the registry defaults: ids such as "edge_detection_1.0.0",
// with collisions suffixed "_1", "_2" and so on.
func DefaultConfig() *Config {
	return &Config{
		IDSeparator: "_",
		SuffixStart: 1,
	}
}

func (c *Config) normalized() *Config {
	if c == nil {
		return DefaultConfig()
	}
	out := *c
	if out.IDSeparator == "" {
		out.IDSeparator = "_"
	}
	if out.SuffixStart < 1 {
		out.SuffixStart = 1
	}
	return &out
}
