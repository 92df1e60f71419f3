package config

import (
	"errors"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"sigs.k8s.io/yaml"
)

// Load loads the configuration from the directory.
func Load(path string) (*Configuration, error) {
	// If given the path to a config.yaml file, move back up a level.
	if filepath.Base(path) == ConfigurationName {
		path = filepath.Dir(path)
	}

	path, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	return loadFs(afero.NewBasePathFs(afero.NewOsFs(), path), path)
}

func loadFs(configFs afero.Fs, dir string) (*Configuration, error) {
	configContents, err := afero.ReadFile(configFs, ConfigurationName)
	if err != nil {
		return nil, err
	}

	var out Configuration
	if err := yaml.UnmarshalStrict(configContents, &out); err != nil {
		return nil, err
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}

	out.configFs = configFs
	out.configurationDir = dir
	return &out, nil
}

// Initialize writes the default configuration to dir unless one is already
// present, then loads it.
func Initialize(dir string, logger *log.Logger) (*Configuration, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}
	return initializeFs(afero.NewBasePathFs(afero.NewOsFs(), dir), dir, logger)
}

func initializeFs(configFs afero.Fs, dir string, logger *log.Logger) (*Configuration, error) {
	_, err := configFs.Stat(ConfigurationName)
	switch {
	case err == nil:
		logger.Printf("%s already exists, skipping", filepath.Join(dir, ConfigurationName))
	case errors.Is(err, fs.ErrNotExist):
		logger.Printf("Writing %s", filepath.Join(dir, ConfigurationName))
		if err := afero.WriteFile(configFs, ConfigurationName, defaultConfigData, 0600); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	return loadFs(configFs, dir)
}
