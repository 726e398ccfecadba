package comps

import (
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// LoadScoringConfig reads a TOML file over DefaultScoring; keys absent from the
// file keep their default. An empty path returns the defaults.
func LoadScoringConfig(path string) (ScoringConfig, error) {
	cfg := DefaultScoring()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read scoring config: %w", err)
	}
	if err := ParseScoringConfig(b, &cfg); err != nil {
		return DefaultScoring(), err
	}
	return cfg, nil
}

func ParseScoringConfig(b []byte, cfg *ScoringConfig) error {
	dec := toml.NewDecoder(strings.NewReader(string(b)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return fmt.Errorf("parse scoring config: %w", err)
	}
	return nil
}
