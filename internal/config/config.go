package config

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

var ConfigFileOverride = ""

var Cfg = struct {
	// Bind is the address wgnld listens on.
	Bind string

	// Interfaces are the WireGuard interfaces to watch. Empty means all
	// interfaces present on the system.
	Interfaces []string

	// PollInterval is how often devices are polled, in seconds.
	PollInterval int
}{
	Bind:         "localhost:8423",
	PollInterval: 5,
}

func resolveConfigFile() string {
	if ConfigFileOverride != "" {
		return ConfigFileOverride
	}

	dir, err := os.UserConfigDir()
	if err != nil {
		dir, err = os.Getwd()
		if err != nil {
			panic(err)
		}
	}

	return filepath.Join(dir, "wgnld", "config.json")
}

func SaveConfigFile() error {
	path := resolveConfigFile()

	base := filepath.Dir(path)
	if err := os.MkdirAll(base, 0o777); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return json.NewEncoder(f).Encode(&Cfg)
}

func ReadConfigFile() error {
	path := resolveConfigFile()

	_, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return SaveConfigFile()
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return json.NewDecoder(f).Decode(&Cfg)
}
