// internal/storage/memory/export.go
package memory

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/PearlCalc/extension/internal/model"
	"github.com/PearlCalc/extension/internal/model/convert"
)

// SessionExport is the root JSON structure of an export file.
type SessionExport struct {
	ExtensionVersion string              `json:"extensionVersion"`
	StartedAt        time.Time           `json:"startedAt"`
	EndedAt          time.Time           `json:"endedAt"`
	Calculations     []model.Calculation `json:"calculations"`
	Traces           []model.Trace       `json:"traces"`
}

// exportJSON writes the session to a (optionally gzipped) JSON file.
func (b *Backend) exportJSON() error {
	export := b.buildExport()

	ext := ".json"
	if b.cfg.CompressOutput {
		ext = ".json.gz"
	}
	filename := "calculations_" + b.startedAt.Format("20060102_150405") + ext
	outputPath := filepath.Join(b.cfg.OutputDir, filename)

	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := writeExport(outputPath, b.cfg.CompressOutput, export); err != nil {
		return err
	}

	b.lastExportPath = outputPath
	return nil
}

func (b *Backend) buildExport() SessionExport {
	export := SessionExport{
		ExtensionVersion: b.version,
		StartedAt:        b.startedAt,
		EndedAt:          time.Now(),
		Calculations:     make([]model.Calculation, len(b.solves)),
		Traces:           make([]model.Trace, len(b.traces)),
	}
	for i, s := range b.solves {
		export.Calculations[i] = convert.CoreToCalculation(s)
	}
	for i, t := range b.traces {
		export.Traces[i] = convert.CoreToTrace(t)
	}
	return export
}

func writeExport(path string, compress bool, data SessionExport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	if !compress {
		return json.NewEncoder(f).Encode(data)
	}

	gz, err := gzip.NewWriterLevel(f, gzip.BestSpeed)
	if err != nil {
		return err
	}
	if err := json.NewEncoder(gz).Encode(data); err != nil {
		_ = gz.Close()
		return fmt.Errorf("encode export: %w", err)
	}
	return gz.Close()
}

// ReadExport loads an export file written by Close.
func ReadExport(path string) (*SessionExport, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if filepath.Ext(path) == ".gz" {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("open gzip: %w", err)
		}
		defer gz.Close()
		r = gz
	}

	var export SessionExport
	if err := json.NewDecoder(r).Decode(&export); err != nil {
		return nil, fmt.Errorf("decode export: %w", err)
	}
	return &export, nil
}
