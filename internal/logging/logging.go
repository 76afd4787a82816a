package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// FileName is the rotating log file inside the log directory.
const FileName = "proforma-mcs.log"

// Init initializes the global logger with dual sinks: os.Stderr and a rotating file.
// Stdout is left alone so that the MCP stdio transport and JSON output stay clean.
func Init(verbose bool) {
	// LOGS_FOLDER may live in the binary-relative .env; Init runs before config.Load.
	exePath, err := os.Executable()
	exeDir := ""
	if err == nil {
		exeDir = filepath.Dir(exePath)
		_ = godotenv.Load(filepath.Join(exeDir, ".env"))
	}

	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	isTerminal := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
	consoleWriter := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
		NoColor:    !isTerminal,
	}

	logDir := ResolveDir(os.Getenv("LOGS_FOLDER"), os.Getenv("DATA_PATH"), exeDir)
	if err := ensureWritable(logDir); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	multi := zerolog.MultiLevelWriter(io.Writer(consoleWriter), NewFileWriter(logDir))
	log.Logger = zerolog.New(multi).
		With().
		Timestamp().
		Logger()
}

// ResolveDir picks the log directory: LOGS_FOLDER, then <DATA_PATH>/logs, then
// <binary dir>/logs, then ./logs.
func ResolveDir(logsFolder, dataPath, exeDir string) string {
	switch {
	case logsFolder != "":
		return logsFolder
	case dataPath != "":
		return filepath.Join(dataPath, "logs")
	case exeDir != "":
		return filepath.Join(exeDir, "logs")
	default:
		return "logs"
	}
}

// NewFileWriter returns the rotating file sink.
func NewFileWriter(dir string) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   filepath.Join(dir, FileName),
		MaxSize:    16, // megabytes
		MaxBackups: 16,
		MaxAge:     90, // days
		Compress:   true,
	}
}

func ensureWritable(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory %q: %w", dir, err)
	}
	probe := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(probe, []byte("test"), 0644); err != nil {
		return fmt.Errorf("log directory %q is not writable: %w", dir, err)
	}
	_ = os.Remove(probe)
	return nil
}
