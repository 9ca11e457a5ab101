package chunking

// Config is the resolved chunking budget. Token counts are estimates
// (len(text)/4), not tokenizer output.
type Config struct {
	TargetTokens  int
	MaxTokens     int
	MinTokens     int
	OverlapTokens int
}

func DefaultConfig() Config {
	return Config{
		TargetTokens:  500,
		MaxTokens:     800,
		MinTokens:     200,
		OverlapTokens: 100,
	}
}

func (c Config) normalize() Config {
	def := DefaultConfig()
	if c.TargetTokens <= 0 {
		c.TargetTokens = def.TargetTokens
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = def.MaxTokens
	}
	if c.MaxTokens < c.TargetTokens {
		c.MaxTokens = c.TargetTokens
	}
	if c.MinTokens <= 0 {
		c.MinTokens = def.MinTokens
	}
	if c.MinTokens > c.TargetTokens {
		c.MinTokens = c.TargetTokens / 2
	}
	if c.OverlapTokens < 0 {
		c.OverlapTokens = 0
	}
	return c
}

// estimateTokens approximates the token count of a span of text.
func estimateTokens(text string) int {
	return len(text) / 4
}
