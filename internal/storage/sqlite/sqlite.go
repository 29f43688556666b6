// Package sqlitestorage implements the storage.Backend interface using an in-memory
// SQLite database with periodic disk dumps via VACUUM INTO.
// It wraps the GORM backend; the only SQLite-specific concerns are creating
// the in-memory DB and dumping it to disk.
package sqlitestorage

import (
	"fmt"
	"time"

	"github.com/OCAP2/navalsim/internal/database"
	"github.com/OCAP2/navalsim/internal/logging"
	"github.com/OCAP2/navalsim/internal/storage"
	gormstorage "github.com/OCAP2/navalsim/internal/storage/gorm"
	"github.com/rs/zerolog"
)

// Config holds configuration for the SQLite storage backend.
type Config struct {
	DumpInterval time.Duration
	DumpPath     string // Path for VACUUM INTO dumps
	// DSN overrides the shared in-memory database, mostly for tests.
	DSN string
}

// Backend wraps the GORM backend for SQLite-specific behavior.
type Backend struct {
	*gormstorage.Backend
	cfg      Config
	log      *logging.SlogManager
	stopChan chan struct{}
	done     chan struct{}
}

var (
	_ storage.Backend    = (*Backend)(nil)
	_ storage.Uploadable = (*Backend)(nil)
)

// New creates a new SQLite storage backend.
func New(cfg Config, logManager *logging.SlogManager, dbLog zerolog.Logger) (*Backend, error) {
	db, err := database.GetSqliteDB(cfg.DSN, dbLog)
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory SQLite DB: %w", err)
	}
	if logManager == nil {
		logManager = logging.NewSlogManager()
	}

	return &Backend{
		Backend: gormstorage.New(gormstorage.Dependencies{
			DB:         db,
			LogManager: logManager,
			DBLogger:   dbLog,
		}),
		cfg:      cfg,
		log:      logManager,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}, nil
}

// Init initializes the embedded GORM backend and starts the dump goroutine.
func (b *Backend) Init() error {
	if err := b.Backend.Init(); err != nil {
		return err
	}

	if b.cfg.DumpPath != "" && b.cfg.DumpInterval > 0 {
		go b.dumpLoop()
	} else {
		close(b.done)
	}
	return nil
}

// Close stops the dump goroutine, flushes the embedded GORM backend and
// writes a last dump.
func (b *Backend) Close() error {
	select {
	case <-b.stopChan:
		return nil
	default:
	}
	close(b.stopChan)
	<-b.done
	if err := b.Backend.Close(); err != nil {
		return err
	}
	return b.dump()
}

// EndBattle finalises the battle and dumps it so the file is complete.
func (b *Backend) EndBattle() error {
	if err := b.Backend.EndBattle(); err != nil {
		return err
	}
	return b.dump()
}

// ExportedFilePath returns the dump file.
func (b *Backend) ExportedFilePath() string {
	return b.cfg.DumpPath
}

// ExportMetadata describes the dump for upload.
func (b *Backend) ExportMetadata() storage.UploadMetadata {
	return storage.UploadMetadata{Tag: "naval-sqlite"}
}

func (b *Backend) dump() error {
	if b.cfg.DumpPath == "" {
		return nil
	}
	b.Flush()
	start := time.Now()
	if err := database.DumpMemoryDBToDisk(b.DB(), b.cfg.DumpPath); err != nil {
		b.log.WriteLog("sqlite:dump", fmt.Sprintf("Error dumping to disk: %v", err), "ERROR")
		return err
	}
	b.log.WriteLog("sqlite:dump", fmt.Sprintf("Dumped to disk in %s", time.Since(start)), "DEBUG")
	return nil
}

// dumpLoop periodically dumps the in-memory SQLite database to disk via VACUUM INTO.
// VACUUM INTO creates a point-in-time snapshot, so no pause mechanism is needed.
func (b *Backend) dumpLoop() {
	defer close(b.done)
	ticker := time.NewTicker(b.cfg.DumpInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			_ = b.dump()
		}
	}
}
