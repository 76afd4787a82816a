package forecast

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
)

// FileLoader reads forecast documents stored as <dir>/<msa>.json.
type FileLoader struct {
	dir string
	now func() time.Time
}

func NewFileLoader(dir string) *FileLoader {
	return &FileLoader{dir: dir, now: time.Now}
}

// LoadForecasts implements Loader. A document older than maxAgeDays counts as absent.
func (l *FileLoader) LoadForecasts(ctx context.Context, msaCode string, horizonYears int, maxAgeDays int) (*ForecastSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, err := ReadDocument(l.path(msaCode))
	if err != nil {
		if os.IsNotExist(err) {
			return Resolve(nil, msaCode, horizonYears)
		}
		return nil, err
	}

	if maxAgeDays > 0 && l.now().Sub(doc.GeneratedAt) > time.Duration(maxAgeDays)*24*time.Hour {
		log.Info().Str("msa", msaCode).Time("generated_at", doc.GeneratedAt).Msg("Forecast document is stale, ignoring")
		return Resolve(nil, msaCode, horizonYears)
	}

	set, err := FromDocument(doc)
	if err != nil {
		return nil, fmt.Errorf("invalid forecast document for %s: %w", msaCode, err)
	}
	return Resolve(set, msaCode, horizonYears)
}

func (l *FileLoader) path(msaCode string) string {
	return filepath.Join(l.dir, fmt.Sprintf("%s.json", msaCode))
}

// ReadDocument parses a forecast document from disk.
func ReadDocument(path string) (Document, error) {
	var doc Document
	data, err := os.ReadFile(path)
	if err != nil {
		return doc, err
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return doc, nil
}

// WriteDocument persists a forecast set as <dir>/<msa>.json via an atomic rename.
func WriteDocument(dir string, set *ForecastSet) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create forecast directory: %w", err)
	}

	data, err := json.MarshalIndent(set.ToDocument(), "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode forecast set: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("%s.json", set.MSACode))
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write temp forecast file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to rename forecast file: %w", err)
	}
	return path, nil
}
