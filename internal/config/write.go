package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joeycumines/nudi/internal/storage"
)

const writeLockTimeout = 2 * time.Second

// SetKeyInFile sets key to value inside section ("" for global) of the config
// file at path, preserving comments and layout. An existing line for the key
// is replaced in place; otherwise the line is added at the end of the section,
// and a missing section is appended to the file. The file is written
// atomically, under a lock file shared with concurrent writers.
func SetKeyInFile(path, section, key, value string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	lock, err := storage.LockWithTimeout(path+".lock", writeLockTimeout)
	if err != nil {
		return fmt.Errorf("locking config file: %w", err)
	}
	defer lock.Unlock()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading config file: %w", err)
	}

	var lines []string
	if len(data) > 0 {
		lines = strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	}

	newLine := key
	if value != "" {
		newLine = key + " " + value
	}

	current := ""
	sectionFound := section == ""
	insertAt := -1
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") {
			if current == section && insertAt < 0 {
				insertAt = lastContentLine(lines[:i]) + 1
			}
			current = strings.TrimSpace(strings.Trim(trimmed, "[]"))
			if current == section {
				sectionFound = true
			}
			continue
		}
		if current != section || trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		if name, _, _ := strings.Cut(trimmed, " "); name == key {
			lines[i] = newLine
			return writeLines(path, lines)
		}
	}

	switch {
	case !sectionFound:
		if len(lines) > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, "["+section+"]", newLine)
	case insertAt < 0:
		// the target section runs to the end of the file
		lines = append(lines, newLine)
	default:
		lines = append(lines[:insertAt], append([]string{newLine}, lines[insertAt:]...)...)
	}
	return writeLines(path, lines)
}

// lastContentLine returns the index of the last non-blank line, or -1.
func lastContentLine(lines []string) int {
	for i := len(lines) - 1; i >= 0; i-- {
		if strings.TrimSpace(lines[i]) != "" {
			return i
		}
	}
	return -1
}

func writeLines(path string, lines []string) error {
	return storage.AtomicWriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0644)
}
