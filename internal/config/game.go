package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/everforgeworks/tap-the-cap/internal/game"
)

// LoadGame reads the game definition (shop catalog, tuning, device tiers).
// An empty path returns the built-in definition. Files ending in .toml are
// decoded as TOML, everything else as YAML. Missing tuning values take the
// observed defaults; an invalid catalog is an error.
func LoadGame(path string) (game.Definition, error) {
	if path == "" {
		return game.DefaultDefinition(), nil
	}

	// 1. Read the file
	raw, err := os.ReadFile(path)
	if err != nil {
		return game.Definition{}, fmt.Errorf("config: read game file: %w", err)
	}

	// 2. Decode by extension
	var def game.Definition
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(raw), &def); err != nil {
			return game.Definition{}, fmt.Errorf("config: decode %s: %w", path, err)
		}
	default:
		if err := yaml.Unmarshal(raw, &def); err != nil {
			return game.Definition{}, fmt.Errorf("config: decode %s: %w", path, err)
		}
	}

	// 3. Fill the gaps
	def.Tuning = def.Tuning.WithDefaults()
	if len(def.DeviceTiers) == 0 {
		def.DeviceTiers = game.DefaultDefinition().DeviceTiers
	}

	if err := def.Validate(); err != nil {
		return game.Definition{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return def, nil
}
