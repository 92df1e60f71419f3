package config

import (
	"bytes"
	"io"
	"log"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
)

func TestInitialize(t *testing.T) {
	tempDir := t.TempDir()
	if _, err := Initialize(tempDir, log.New(io.Discard, "", 0)); err != nil {
		t.Fatal(err)
	}

	// Check that the config is valid
	cfg, err := Load(tempDir)
	if err != nil {
		t.Fatal(err)
	}

	t.Run("LoadConfigFile", func(t *testing.T) {
		_, err := Load(filepath.Join(tempDir, ConfigurationName))
		assert.Nil(t, err)
	})

	t.Run("OpenEventLog", func(t *testing.T) {
		fd, err := cfg.OpenEventLog()
		assert.Nil(t, err)
		_, err = fd.Write([]byte("{}\n"))
		assert.Nil(t, err)
		fd.Close()

		fd, err = cfg.OpenEventLog()
		assert.Nil(t, err)
		_, err = fd.Write([]byte("{}\n"))
		assert.Nil(t, err)
		fd.Close()
	})

	t.Run("ReadEventLog", func(t *testing.T) {
		fd, err := cfg.ReadEventLog()
		assert.Nil(t, err)
		defer fd.Close()

		contents, err := io.ReadAll(fd)
		assert.Nil(t, err)
		assert.Equal(t, "{}\n{}\n", string(contents))
	})

	t.Run("HistoryPath", func(t *testing.T) {
		assert.Equal(t, filepath.Join(tempDir, ".evalsh_history"), cfg.HistoryPath())
	})
}

func TestInitialize_KeepsExisting(t *testing.T) {
	memFs := afero.NewMemMapFs()
	existing := []byte("logging:\n  level: debug\n")
	assert.Nil(t, afero.WriteFile(memFs, ConfigurationName, existing, 0600))

	buf := &bytes.Buffer{}
	cfg, err := initializeFs(memFs, "/cfg", log.New(buf, "", 0))
	assert.Nil(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Contains(t, buf.String(), "already exists")

	contents, err := afero.ReadFile(memFs, ConfigurationName)
	assert.Nil(t, err)
	assert.Equal(t, existing, contents)
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(t.TempDir())
	assert.NotNil(t, err)
}
