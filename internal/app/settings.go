package app

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/jpl-au/forest"
)

// DefaultSettingsFile is read from the working directory when no settings
// file is named.
const DefaultSettingsFile = "forest.yaml"

// DefaultDBPath is used when neither a flag nor the settings file names a
// database.
const DefaultDBPath = "forest.db"

// Settings represents configuration loaded from forest.yaml.
// Field names match snake_case YAML keys.
type Settings struct {
	DB         string `yaml:"db"`
	Checksum   string `yaml:"checksum"`
	Compress   bool   `yaml:"compress"`
	SyncWrites bool   `yaml:"sync_writes"`
	LogLevel   string `yaml:"log_level"`
}

// LoadSettings reads the settings file at path. An empty path means
// DefaultSettingsFile, which may be absent; a named file must exist.
func LoadSettings(path string) (Settings, error) {
	if path != "" {
		return loadSettingsFile(path)
	}
	s, err := loadSettingsFile(DefaultSettingsFile)
	if errors.Is(err, os.ErrNotExist) {
		return Settings{}, nil
	}
	return s, err
}

func loadSettingsFile(path string) (Settings, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, err
	}

	var s Settings
	if err := yaml.Unmarshal(b, &s); err != nil {
		return Settings{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return s, nil
}

// DBPath returns the configured database path, or DefaultDBPath.
func (s Settings) DBPath() string {
	if s.DB == "" {
		return DefaultDBPath
	}
	return s.DB
}

// Config translates the settings into database options.
func (s Settings) Config(readOnly bool, log *zerolog.Logger) (forest.Config, error) {
	alg, err := ParseChecksum(s.Checksum)
	if err != nil {
		return forest.Config{}, err
	}
	return forest.Config{
		Checksum:   alg,
		Compress:   s.Compress,
		SyncWrites: s.SyncWrites,
		ReadOnly:   readOnly,
		Logger:     log,
	}, nil
}

// ParseChecksum maps a checksum name to its algorithm. The empty name
// selects the database default.
func ParseChecksum(name string) (int, error) {
	switch strings.ToLower(name) {
	case "":
		return 0, nil
	case "xxh3":
		return forest.ChecksumXXH3, nil
	case "fnv1a", "fnv":
		return forest.ChecksumFNV1a, nil
	case "blake2b":
		return forest.ChecksumBlake2b, nil
	}
	return 0, fmt.Errorf("unknown checksum %q (want xxh3, fnv1a or blake2b)", name)
}
