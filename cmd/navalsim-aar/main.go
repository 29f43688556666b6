// Command navalsim-aar reads recorded battles back out of the SQL store for
// after-action review.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/OCAP2/navalsim/internal/config"
	"github.com/OCAP2/navalsim/internal/database"
	"github.com/OCAP2/navalsim/internal/model"
	gormstorage "github.com/OCAP2/navalsim/internal/storage/gorm"
	"github.com/OCAP2/navalsim/internal/storage/memory"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

func main() {
	configDir := flag.String("config", ".", "directory containing "+config.FileName)
	sqlitePath := flag.String("sqlite", "", "read a SQLite dump instead of Postgres")
	outDir := flag.String("out", ".", "directory for exported battles")
	compress := flag.Bool("compress", false, "zstd compress exports")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] list | export <battle id>...\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()

	if err := config.Load(*configDir); err != nil {
		log.Warn().Err(err).Msg("Failed to load config, using defaults")
	}

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	db, err := openDB(*sqlitePath, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}

	switch strings.ToLower(args[0]) {
	case "list":
		err = listBattles(db, os.Stdout)
	case "export", "getjson":
		if len(args) < 2 {
			log.Fatal().Msg("No battle IDs provided")
		}
		var paths []string
		paths, err = exportBattles(db, args[1:], *outDir, *compress)
		for _, p := range paths {
			log.Info().Str("path", p).Msg("Exported battle")
		}
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatal().Err(err).Msg(args[0] + " failed")
	}
}

func openDB(sqlitePath string, log zerolog.Logger) (*gorm.DB, error) {
	if sqlitePath == "" {
		return database.GetPostgresDB(log)
	}
	if _, err := os.Stat(sqlitePath); err != nil {
		return nil, err
	}
	return database.GetSqliteDB(sqlitePath, log)
}

func listBattles(db *gorm.DB, w io.Writer) error {
	var battles []model.Battle
	if err := db.Order("id ASC").Find(&battles).Error; err != nil {
		return fmt.Errorf("list battles: %w", err)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSTARTED\tTICKS\tWINNER")
	for _, b := range battles {
		winner := b.WinningSide
		if winner == "" {
			winner = "-"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\n", b.ID, b.Name, b.StartedAt.UTC().Format(time.RFC3339), b.EndTick, winner)
	}
	return tw.Flush()
}

// exportBattles writes one export file per battle ID and returns their paths.
func exportBattles(db *gorm.DB, ids []string, outDir string, compress bool) ([]string, error) {
	var paths []string
	for _, raw := range ids {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return paths, fmt.Errorf("invalid battle id %q: %w", raw, err)
		}
		export, err := gormstorage.LoadExport(db, uint(id))
		if err != nil {
			return paths, err
		}
		name := fmt.Sprintf("battle_%d_%s.json", id, export.Battle.StartedAt.UTC().Format("20060102_150405"))
		if compress {
			name += ".zst"
		}
		path := filepath.Join(outDir, name)
		if err := memory.WriteExportFile(path, export); err != nil {
			return paths, fmt.Errorf("write battle %d: %w", id, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
