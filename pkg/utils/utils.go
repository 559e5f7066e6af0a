package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vctt94/holdem/pkg/poker"
)

// FormatCards renders cards for log lines, e.g. "A♠ 10♥".
func FormatCards(cards []poker.Card) string {
	if len(cards) == 0 {
		return "None"
	}
	parts := make([]string, len(cards))
	for i, c := range cards {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}

// EnsureDataDirExists creates the datadir and its logs subdirectory if they
// don't exist.
func EnsureDataDirExists(datadir string) error {
	if err := os.MkdirAll(datadir, 0700); err != nil {
		return fmt.Errorf("failed to create datadir %s: %w", datadir, err)
	}
	logsDir := filepath.Join(datadir, "logs")
	if err := os.MkdirAll(logsDir, 0700); err != nil {
		return fmt.Errorf("failed to create logs directory %s: %w", logsDir, err)
	}
	return nil
}
