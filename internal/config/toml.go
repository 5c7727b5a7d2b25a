package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the optional TOML configuration file. Unset keys
// keep their built-in defaults; environment variables win over the file.
type FileConfig struct {
	Server    FileServer    `toml:"server"`
	Data      FileData      `toml:"data"`
	Log       FileLog       `toml:"log"`
	Dashboard FileDashboard `toml:"dashboard"`
}

type FileServer struct {
	Host *string `toml:"host"`
	Port *int    `toml:"port"`
}

type FileData struct {
	CSVFile *string `toml:"csv-file"`
}

type FileLog struct {
	Level  *string `toml:"level"`
	Format *string `toml:"format"`
}

type FileDashboard struct {
	RefreshInterval *string `toml:"refresh-interval"`
	CacheSize       *int    `toml:"cache-size"`
	MaxTableRows    *int    `toml:"max-table-rows"`
}

// LoadFile reads a TOML config from the given path. Missing file is not an error.
func LoadFile(path string) (FileConfig, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if v := cfg.Dashboard.RefreshInterval; v != nil {
		if _, err := time.ParseDuration(*v); err != nil {
			return FileConfig{}, fmt.Errorf("invalid dashboard refresh-interval %q: %w", *v, err)
		}
	}
	return cfg, nil
}

func (s FileServer) host(def string) string {
	if s.Host != nil {
		return *s.Host
	}
	return def
}

func (s FileServer) port(def int) int {
	if s.Port != nil {
		return *s.Port
	}
	return def
}

func (d FileData) csvFile(def string) string {
	if d.CSVFile != nil {
		return *d.CSVFile
	}
	return def
}

func (l FileLog) level(def string) string {
	if l.Level != nil {
		return *l.Level
	}
	return def
}

func (l FileLog) format(def string) string {
	if l.Format != nil {
		return *l.Format
	}
	return def
}

func (d FileDashboard) refreshInterval(def time.Duration) time.Duration {
	if d.RefreshInterval != nil {
		if v, err := time.ParseDuration(*d.RefreshInterval); err == nil {
			return v
		}
	}
	return def
}

func (d FileDashboard) cacheSize(def int) int {
	if d.CacheSize != nil {
		return *d.CacheSize
	}
	return def
}

func (d FileDashboard) maxTableRows(def int) int {
	if d.MaxTableRows != nil {
		return *d.MaxTableRows
	}
	return def
}
