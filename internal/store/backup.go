package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"appanote/pkg/models"
)

var ErrInvalidBackup = errors.New("invalid backup document")

// Backup writes a timestamped copy of the current document into dir
// and returns the path of the backup file.
func (m *Manager) Backup(dir string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	data, err := json.MarshalIndent(m.doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal data: %w", err)
	}

	name := fmt.Sprintf("backup-%s.json", time.Now().UTC().Format("20060102-150405"))
	path := filepath.Join(dir, name)

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write backup: %w", err)
	}

	return path, nil
}

// Restore replaces the store document with JSON read from r.
// The incoming payload must decode into a store document.
func (m *Manager) Restore(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read backup: %w", err)
	}

	var doc models.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBackup, err)
	}

	if doc.Folders == nil {
		doc.Folders = make(map[string]models.Folder)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.doc = &doc

	return m.save()
}

// RestoreFile replaces the store document from a backup file on disk
func (m *Manager) RestoreFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open backup file: %w", err)
	}
	defer f.Close()

	return m.Restore(f)
}
