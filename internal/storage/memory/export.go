package memory

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/OCAP2/navalsim/pkg/core"
	"github.com/klauspost/compress/zstd"
)

// Export is the root JSON structure of an exported battle.
type Export struct {
	Battle     core.Battle           `json:"battle"`
	EndTick    uint64                `json:"endTick"`
	Duration   float64               `json:"duration"`
	Vessels    []VesselExport        `json:"vessels"`
	Fired      []core.FiredEvent     `json:"fired"`
	Hits       []core.HitEvent       `json:"hits"`
	Casualties []core.CasualtyEvent  `json:"casualties"`
	Roles      []core.RoleEvent      `json:"roles"`
	Messages   []core.MessageEvent   `json:"messages"`
	Actions    []core.ActionEvent    `json:"actions"`
	Destroyed  []core.DestroyedEvent `json:"destroyed"`
}

// VesselExport is one vessel with its state track.
type VesselExport struct {
	core.VesselInfo
	States []core.VesselState `json:"states"`
}

// fileName builds a filesystem safe name from the battle name and start.
func fileName(b *core.Battle, compress bool) string {
	name := strings.NewReplacer(" ", "_", ":", "_", "/", "_").Replace(b.Name)
	if name == "" {
		name = "battle"
	}
	base := fmt.Sprintf("%s_%s.json", name, b.StartedAt.Format("20060102_150405"))
	if compress {
		return base + ".zst"
	}
	return base
}

// exportJSON writes the battle to OutputDir. Callers hold b.mu.
func (b *Backend) exportJSON() error {
	export := b.buildExport()

	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	outputPath := filepath.Join(b.cfg.OutputDir, fileName(b.battle, b.cfg.CompressOutput))

	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer f.Close()

	if err := writeExport(f, export, b.cfg.CompressOutput); err != nil {
		return err
	}
	b.lastExportPath = outputPath
	return nil
}

func writeExport(w io.Writer, export Export, compress bool) error {
	if !compress {
		return json.NewEncoder(w).Encode(export)
	}
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return fmt.Errorf("failed to create zstd writer: %w", err)
	}
	bw := bufio.NewWriterSize(enc, 128*1024)
	if err := json.NewEncoder(bw).Encode(export); err != nil {
		_ = enc.Close()
		return fmt.Errorf("failed to encode export: %w", err)
	}
	if err := bw.Flush(); err != nil {
		_ = enc.Close()
		return err
	}
	return enc.Close()
}

// WriteExportFile writes export to path, zstd compressed when the path ends
// in .zst.
func WriteExportFile(path string, export Export) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer f.Close()
	return writeExport(f, export, strings.HasSuffix(path, ".zst"))
}

// ReadExport decodes a file written by EndBattle, compressed or not.
func ReadExport(path string) (Export, error) {
	f, err := os.Open(path)
	if err != nil {
		return Export{}, err
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".zst") {
		dec, err := zstd.NewReader(f)
		if err != nil {
			return Export{}, err
		}
		defer dec.Close()
		r = dec
	}
	var export Export
	if err := json.NewDecoder(r).Decode(&export); err != nil {
		return Export{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return export, nil
}

func (b *Backend) buildExport() Export {
	export := Export{
		Battle:     *b.battle,
		EndTick:    b.lastTick,
		Duration:   b.lastGameTime,
		Vessels:    make([]VesselExport, 0, len(b.order)),
		Fired:      nonNil(b.firedEvents),
		Hits:       nonNil(b.hitEvents),
		Casualties: nonNil(b.casualtyEvents),
		Roles:      nonNil(b.roleEvents),
		Messages:   nonNil(b.messageEvents),
		Actions:    nonNil(b.actionEvents),
		Destroyed:  nonNil(b.destroyedEvents),
	}
	for _, id := range b.order {
		rec := b.vessels[id]
		export.Vessels = append(export.Vessels, VesselExport{VesselInfo: rec.Vessel, States: nonNil(rec.States)})
	}
	return export
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
