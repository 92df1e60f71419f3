package config

import (
	_ "embed"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/josephlewis42/evalsh/core/env"
	"github.com/spf13/afero"
	"sigs.k8s.io/yaml"
)

//go:embed default/config.yaml
var defaultConfigData []byte

const (
	ConfigurationName = "config.yaml"
	EventLogName      = "events.log"
)

type Configuration struct {
	configFs afero.Fs
	// configurationDir is the directory configFs is rooted at.
	configurationDir string

	Shell   Shell   `json:"shell"`
	Logging Logging `json:"logging"`
}

// Validate the configuration for basic semantic errors.
func (c *Configuration) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		return name
	})

	return validate.Struct(c)
}

type Shell struct {
	// Path replaces PATH for launched programs when set.
	Path        string   `json:"path"`
	Env         []string `json:"env" validate:"dive,contains=="`
	Prompt      string   `json:"prompt"`
	HistoryFile string   `json:"history_file"`
}

type Logging struct {
	Level    string `json:"level" validate:"required,oneof=debug info warn error"`
	EventLog bool   `json:"event_log"`
}

func (c *Configuration) fs() afero.Fs {
	return c.configFs
}

// Dir returns the configuration directory.
func (c *Configuration) Dir() string {
	return c.configurationDir
}

// OpenEventLog opens the event log in an append only state.
func (c *Configuration) OpenEventLog() (afero.File, error) {
	return c.fs().OpenFile(EventLogName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
}

func (c *Configuration) ReadEventLog() (afero.File, error) {
	return c.fs().OpenFile(EventLogName, os.O_RDONLY, 0600)
}

// HistoryPath returns where the playground keeps its history, or an empty
// string if history is disabled.
func (c *Configuration) HistoryPath() string {
	switch name := c.Shell.HistoryFile; {
	case name == "":
		return ""
	case filepath.IsAbs(name):
		return name
	default:
		return filepath.Join(c.configurationDir, name)
	}
}

// Environ returns base with the configured PATH and extra variables applied.
func (c *Configuration) Environ(base []string) ([]string, error) {
	out := env.NewMapEnvFromEnvList(base)
	if c.Shell.Path != "" {
		if err := out.Setenv("PATH", c.Shell.Path); err != nil {
			return nil, err
		}
	}

	if err := env.CopyEnv(out, env.NewMapEnvFromEnvList(c.Shell.Env)); err != nil {
		return nil, err
	}
	return out.Environ(), nil
}

func defaultConfig() *Configuration {
	var out Configuration
	if err := yaml.UnmarshalStrict(defaultConfigData, &out); err != nil {
		panic(err)
	}
	return &out
}

// Default returns the built-in configuration without a backing directory.
// Nothing is persisted: the event log and history are disabled.
func Default() *Configuration {
	cfg := defaultConfig()
	cfg.configFs = afero.NewMemMapFs()
	cfg.Logging.EventLog = false
	cfg.Shell.HistoryFile = ""
	return cfg
}
