// Package config loads cmdcorpus settings from YAML and the environment.
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// Paths holds the directories cmdcorpus reads and writes.
type Paths struct {
	// ConfigDir holds config.yaml (~/.config/cmdcorpus)
	ConfigDir string
	// DataDir holds the corpus database (~/.local/share/cmdcorpus)
	DataDir string
}

// DefaultPaths follows the XDG base directory layout, or %APPDATA% and
// %LOCALAPPDATA% on Windows.
func DefaultPaths() *Paths {
	home := homeDir()

	if runtime.GOOS == "windows" {
		appData := os.Getenv("APPDATA")
		if appData == "" {
			appData = filepath.Join(home, "AppData", "Roaming")
		}
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			localAppData = filepath.Join(home, "AppData", "Local")
		}
		return &Paths{
			ConfigDir: filepath.Join(appData, "cmdcorpus"),
			DataDir:   filepath.Join(localAppData, "cmdcorpus"),
		}
	}

	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		configHome = filepath.Join(home, ".config")
	}
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		dataHome = filepath.Join(home, ".local", "share")
	}
	return &Paths{
		ConfigDir: filepath.Join(configHome, "cmdcorpus"),
		DataDir:   filepath.Join(dataHome, "cmdcorpus"),
	}
}

// ConfigFile returns the path to config.yaml.
func (p *Paths) ConfigFile() string {
	return filepath.Join(p.ConfigDir, "config.yaml")
}

// DatabaseFile returns the default corpus database path.
func (p *Paths) DatabaseFile() string {
	return filepath.Join(p.DataDir, "corpus.db")
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		if runtime.GOOS == "windows" {
			return os.Getenv("USERPROFILE")
		}
		return os.Getenv("HOME")
	}
	return home
}
