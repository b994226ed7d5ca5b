package workitem

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"mcs-forecast/internal/stats"
)

// Format is the on-disk encoding of a snapshot file.
type Format string

const (
	FormatJSON  Format = "json"
	FormatJSONL Format = "jsonl"
	FormatYAML  Format = "yaml"
)

// FormatFromPath infers the encoding from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".jsonl", ".ndjson":
		return FormatJSONL, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported snapshot extension %q", filepath.Ext(path))
	}
}

// LoadFile reads and validates a snapshot from disk.
func LoadFile(path string) (Snapshot, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return Snapshot{}, err
	}

	file, err := os.Open(path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer file.Close()

	snap, err := Decode(file, format)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%s: %w", path, err)
	}

	log.Debug().Str("path", path).Int("items", len(snap.Items)).Msg("Loaded snapshot")
	return snap, nil
}

// Decode reads a snapshot in the given format. Unknown fields are rejected so every
// message has exactly one schema.
func Decode(r io.Reader, format Format) (Snapshot, error) {
	var snap Snapshot

	switch format {
	case FormatJSON:
		data, err := io.ReadAll(r)
		if err != nil {
			return Snapshot{}, fmt.Errorf("failed to read snapshot: %w", err)
		}
		trimmed := bytes.TrimSpace(data)
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.DisallowUnknownFields()
		// A bare array is accepted as an unnamed snapshot.
		if len(trimmed) > 0 && trimmed[0] == '[' {
			err = dec.Decode(&snap.Items)
		} else {
			err = dec.Decode(&snap)
		}
		if err != nil {
			return Snapshot{}, fmt.Errorf("%w: %v", stats.ErrInvalidInput, err)
		}

	case FormatJSONL:
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		line := 0
		for scanner.Scan() {
			line++
			raw := bytes.TrimSpace(scanner.Bytes())
			if len(raw) == 0 {
				continue
			}
			dec := json.NewDecoder(bytes.NewReader(raw))
			dec.DisallowUnknownFields()
			var it Item
			if err := dec.Decode(&it); err != nil {
				return Snapshot{}, fmt.Errorf("%w: line %d: %v", stats.ErrInvalidInput, line, err)
			}
			snap.Items = append(snap.Items, it)
		}
		if err := scanner.Err(); err != nil {
			return Snapshot{}, fmt.Errorf("error reading snapshot: %w", err)
		}

	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&snap); err != nil && err != io.EOF {
			return Snapshot{}, fmt.Errorf("%w: %v", stats.ErrInvalidInput, err)
		}

	default:
		return Snapshot{}, fmt.Errorf("unsupported snapshot format %q", format)
	}

	if err := snap.Validate(); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// SaveFile writes a snapshot atomically (temp file + rename).
func SaveFile(path string, snap Snapshot) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	tmpPath := path + ".tmp"
	file, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create temp snapshot file: %w", err)
	}

	writer := bufio.NewWriter(file)
	if err := Encode(writer, snap, format); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return err
	}

	if err := writer.Flush(); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to flush writer: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename snapshot file: %w", err)
	}

	log.Info().Str("path", path).Int("count", len(snap.Items)).Msg("Snapshot saved")
	return nil
}

// Encode writes a snapshot in the given format.
func Encode(w io.Writer, snap Snapshot, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	case FormatJSONL:
		enc := json.NewEncoder(w)
		for _, it := range snap.Items {
			if err := enc.Encode(it); err != nil {
				return fmt.Errorf("failed to encode item %s: %w", it.ID, err)
			}
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(snap); err != nil {
			return fmt.Errorf("failed to encode snapshot: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported snapshot format %q", format)
	}
}
