package emu

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/kirsle/configdir"

	"reality/emu/log"
	"reality/hw"
)

type Config struct {
	Video   VideoConfig   `toml:"video"`
	General GeneralConfig `toml:"general"`
}

type VideoConfig struct {
	Standard     string `toml:"standard"`      // NTSC or PAL
	ExpansionPak bool   `toml:"expansion_pak"` // 8 MiB RDRAM instead of 4
}

type GeneralConfig struct {
	LogModules []string `toml:"log_modules"`
}

func DefaultConfig() Config {
	return Config{
		Video: VideoConfig{
			Standard:     "NTSC",
			ExpansionPak: true,
		},
	}
}

var ConfigDir string = sync.OnceValue(func() string {
	dir := configdir.LocalConfig("reality")
	if err := configdir.MakePath(dir); err != nil {
		log.ModEmu.Fatalf("failed to create directory %s: %v", dir, err)
	}
	return dir
})()

const cfgFilename = "config.toml"

// LoadConfigOrDefault loads the configuration from the reality config
// directory, or provides a default one.
func LoadConfigOrDefault() Config {
	var cfg Config
	_, err := toml.DecodeFile(filepath.Join(ConfigDir, cfgFilename), &cfg)
	if err != nil {
		return DefaultConfig()
	}
	return cfg
}

// SaveConfig into the reality config directory.
func SaveConfig(cfg Config) error {
	buf, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(ConfigDir, cfgFilename), buf, 0644)
}

// Standard maps the configured video standard string onto the machine
// constant, defaulting to NTSC.
func (c Config) Standard() hw.VideoStandard {
	if strings.EqualFold(c.Video.Standard, "PAL") {
		return hw.PAL
	}
	return hw.NTSC
}

// RAMSize returns the configured RDRAM size in bytes.
func (c Config) RAMSize() int {
	if c.Video.ExpansionPak {
		return hw.RDRAMExpandedSize
	}
	return hw.RDRAMSize
}
