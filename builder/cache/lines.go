package cache

import (
	"log/slog"
	"strings"

	"github.com/spf13/afero"
)

// LinesCodec stores a list of strings one per line.
// It has no negative value: an empty file decodes to an empty list.
type LinesCodec struct{}

// Encode joins lines with newlines
func (LinesCodec) Encode(lines []string) ([]byte, error) {
	if len(lines) == 0 {
		return []byte{}, nil
	}
	return []byte(strings.Join(lines, "\n") + "\n"), nil
}

// Decode splits data into lines, dropping the trailing newline and any
// carriage returns.
func (LinesCodec) Decode(data []byte) ([]string, error) {
	text := strings.TrimRight(string(data), "\r\n")
	if text == "" {
		return []string{}, nil
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines, nil
}

func (LinesCodec) IsNegative([]string) bool { return false }

func (LinesCodec) Negative() ([]string, bool) { return nil, false }

// LinesCache is a disk cache of line lists.
type LinesCache = DiskCache[[]string]

// NewLinesCache creates a line-list cache named name under root.
func NewLinesCache(fsys afero.Fs, root, name string, logger *slog.Logger) (*LinesCache, error) {
	return NewDiskCache[[]string](fsys, root, name, LinesCodec{}, logger)
}
