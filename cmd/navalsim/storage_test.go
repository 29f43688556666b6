package main

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/OCAP2/navalsim/internal/config"
	"github.com/OCAP2/navalsim/internal/logging"
	gormstorage "github.com/OCAP2/navalsim/internal/storage/gorm"
	"github.com/OCAP2/navalsim/internal/storage/memory"
	sqlitestorage "github.com/OCAP2/navalsim/internal/storage/sqlite"
	wsstorage "github.com/OCAP2/navalsim/internal/storage/websocket"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestLogging(t *testing.T) {
	t.Helper()
	SlogManager = logging.NewSlogManager()
	Logger = SlogManager.Logger()
	t.Cleanup(viper.Reset)
}

func TestHttpToWS(t *testing.T) {
	tests := []struct{ in, want string }{
		{"http://localhost:5000", "ws://localhost:5000"},
		{"https://review.example.com/", "wss://review.example.com"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, httpToWS(tt.in))
	}
}

func TestSessionFile(t *testing.T) {
	start := time.Date(1942, 11, 13, 1, 30, 0, 0, time.UTC)
	assert.Equal(t, filepath.Join("rec", "navalsim_19421113_013000.db"), sessionFile(filepath.Join("rec", "navalsim.db"), start))
	assert.Equal(t, "out_19421113_013000", sessionFile("out", start))
}

func TestCreateStorageBackend(t *testing.T) {
	setupTestLogging(t)
	viper.Set("api.serverUrl", "https://review.example.com")

	b, err := createStorageBackend(config.StorageConfig{Type: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &memory.Backend{}, b)

	b, err = createStorageBackend(config.StorageConfig{})
	require.NoError(t, err)
	assert.IsType(t, &memory.Backend{}, b)

	b, err = createStorageBackend(config.StorageConfig{Type: "postgres"})
	require.NoError(t, err)
	assert.IsType(t, &gormstorage.Backend{}, b)

	b, err = createStorageBackend(config.StorageConfig{Type: "websocket"})
	require.NoError(t, err)
	assert.IsType(t, &wsstorage.Backend{}, b)

	b, err = createStorageBackend(config.StorageConfig{
		Type:   "sqlite",
		SQLite: config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "navalsim.db")},
	})
	require.NoError(t, err)
	assert.IsType(t, &sqlitestorage.Backend{}, b)

	_, err = createStorageBackend(config.StorageConfig{Type: "tape"})
	assert.Error(t, err)
}
