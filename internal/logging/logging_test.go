package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func TestResolveDir(t *testing.T) {
	tests := []struct {
		name                         string
		logsFolder, dataPath, exeDir string
		expected                     string
	}{
		{"ExplicitFolder", "/var/log/pf", "/data", "/opt/bin", "/var/log/pf"},
		{"DataPath", "", "/data", "/opt/bin", filepath.Join("/data", "logs")},
		{"BinaryDir", "", "", "/opt/bin", filepath.Join("/opt/bin", "logs")},
		{"WorkingDir", "", "", "", "logs"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveDir(tt.logsFolder, tt.dataPath, tt.exeDir); got != tt.expected {
				t.Errorf("ResolveDir() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestFileWriter(t *testing.T) {
	dir := t.TempDir()
	if err := ensureWritable(dir); err != nil {
		t.Fatalf("ensureWritable: %v", err)
	}

	w := NewFileWriter(dir)
	logger := zerolog.New(w)
	logger.Info().Str("msa", "35620").Msg("hello")
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	if len(data) == 0 {
		t.Error("log file is empty")
	}
	if _, err := os.Stat(filepath.Join(dir, ".write-test")); !os.IsNotExist(err) {
		t.Error("write probe should be removed")
	}
}
