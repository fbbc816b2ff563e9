package workspace

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/vango-dev/vstore/internal/errors"
)

// SeedVersion is the seed format version this package reads.
const SeedVersion = 1

// Seed is the on-disk form of a workspace.
type Seed struct {
	Version      int            `json:"version" yaml:"version" toml:"version"`
	Projects     []Project      `json:"projects" yaml:"projects" toml:"projects"`
	Environments []Environment  `json:"environments" yaml:"environments" toml:"environments"`
	History      []HistoryEntry `json:"history,omitempty" yaml:"history,omitempty" toml:"history,omitempty"`
}

// LoadSeed reads a seed file. The codec is chosen by extension: .json,
// .toml, .yaml or .yml.
func LoadSeed(path string) (Seed, error) {
	var seed Seed

	data, err := os.ReadFile(path)
	if err != nil {
		return seed, errors.New("W001").Wrap(err).
			WithSuggestion("Set workspace.seed in vstore.json to an existing file")
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &seed)
	case ".toml":
		err = toml.Unmarshal(data, &seed)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &seed)
	default:
		return seed, errors.New("W002").
			WithDetail(fmt.Sprintf("Cannot decode %s.", filepath.Base(path))).
			WithSuggestion("Use a .json, .toml or .yaml seed file")
	}
	if err != nil {
		ve := errors.New("W002").Wrap(err)
		var derr *toml.DecodeError
		if stderrors.As(err, &derr) {
			row, col := derr.Position()
			return seed, ve.WithLocation(path, row, col)
		}
		return seed, ve.WithLocationFromError(path, err)
	}

	if err := seed.Validate(); err != nil {
		return seed, errors.New("W002").Wrap(err)
	}
	return seed, nil
}

// Validate checks the version, id uniqueness and that at most one
// environment is the default. A zero version is read as SeedVersion.
func (s *Seed) Validate() error {
	if s.Version == 0 {
		s.Version = SeedVersion
	}
	if s.Version != SeedVersion {
		return fmt.Errorf("unsupported seed version %d", s.Version)
	}

	seen := make(map[string]string)
	claim := func(kind, id string) error {
		if id == "" {
			return fmt.Errorf("%s without an id", kind)
		}
		if prev, ok := seen[id]; ok {
			return fmt.Errorf("duplicate id %q (%s and %s)", id, prev, kind)
		}
		seen[id] = kind
		return nil
	}

	for _, p := range s.Projects {
		if err := claim("project", p.ID); err != nil {
			return err
		}
		for _, c := range p.Collections {
			if err := claim("collection", c.ID); err != nil {
				return err
			}
			for _, r := range c.Requests {
				if err := claim("request", r.ID); err != nil {
					return err
				}
			}
		}
	}

	defaults := 0
	for _, e := range s.Environments {
		if err := claim("environment", e.ID); err != nil {
			return err
		}
		if e.IsDefault {
			defaults++
		}
	}
	if defaults > 1 {
		return fmt.Errorf("%d default environments, expected at most one", defaults)
	}
	return nil
}
