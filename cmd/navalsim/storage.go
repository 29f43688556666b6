package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/OCAP2/navalsim/internal/config"
	"github.com/OCAP2/navalsim/internal/storage"
	gormstorage "github.com/OCAP2/navalsim/internal/storage/gorm"
	"github.com/OCAP2/navalsim/internal/storage/memory"
	sqlitestorage "github.com/OCAP2/navalsim/internal/storage/sqlite"
	wsstorage "github.com/OCAP2/navalsim/internal/storage/websocket"
	"github.com/spf13/viper"
)

// streamPath is appended to api.serverUrl when no websocket URL is set.
const streamPath = "/api/v1/stream"

func createStorageBackend(storageCfg config.StorageConfig) (storage.Backend, error) {
	switch storageCfg.Type {
	case "postgres":
		Logger.Info("Postgres storage backend initialized")
		return gormstorage.New(gormstorage.Dependencies{
			LogManager: SlogManager,
			DBLogger:   DBLogger,
		}), nil

	case "sqlite":
		dumpPath := sessionFile(storageCfg.SQLite.Path, SessionStartTime)
		backend, err := sqlitestorage.New(sqlitestorage.Config{
			DumpInterval: storageCfg.SQLite.DumpInterval,
			DumpPath:     dumpPath,
		}, SlogManager, DBLogger)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite backend: %w", err)
		}
		Logger.Info("SQLite storage backend initialized", "path", dumpPath)
		return backend, nil

	case "websocket":
		wsURL := storageCfg.WebSocket.URL
		if wsURL == "" {
			wsURL = httpToWS(viper.GetString("api.serverUrl")) + streamPath
		}
		secret := storageCfg.WebSocket.Secret
		if secret == "" {
			secret = viper.GetString("api.apiKey")
		}
		Logger.Info("WebSocket storage backend initialized", "url", wsURL)
		return wsstorage.New(wsstorage.Config{
			URL:          wsURL,
			Secret:       secret,
			StreamStatus: storageCfg.WebSocket.StreamStatus,
			Logger:       Logger,
		}), nil

	case "memory", "":
		Logger.Info("Memory storage backend initialized", "dir", storageCfg.Memory.OutputDir)
		return memory.New(storageCfg.Memory), nil

	default:
		return nil, fmt.Errorf("unknown storage type %q", storageCfg.Type)
	}
}

// httpToWS converts an HTTP(S) URL to a WebSocket URL.
func httpToWS(httpURL string) string {
	s := strings.TrimRight(httpURL, "/")
	s = strings.Replace(s, "https://", "wss://", 1)
	s = strings.Replace(s, "http://", "ws://", 1)
	return s
}

// sessionFile stamps a file name with the session start so runs never
// overwrite each other: recordings/navalsim.db -> recordings/navalsim_20060102_150405.db
func sessionFile(path string, start time.Time) string {
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	return fmt.Sprintf("%s_%s%s", base, start.Format("20060102_150405"), ext)
}
