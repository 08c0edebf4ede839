// Package storage owns the upload directory: durable writes of incoming media
// and per-run scratch workspaces.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Store writes uploaded media under a base directory and hands out
// run-scoped workspaces. Workspaces are namespaced by run ID, never by the
// original filename, so concurrent uploads of same-named files cannot collide.
type Store struct {
	baseDir string
}

// New creates the base directory if needed.
func New(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(baseDir, "runs"), 0o755); err != nil {
		return nil, fmt.Errorf("create runs dir: %w", err)
	}
	return &Store{baseDir: baseDir}, nil
}

// BaseDir returns the upload root.
func (s *Store) BaseDir() string {
	return s.baseDir
}

// SaveUpload streams the reader to durable storage under a generated unique
// name, preserving the original extension. The copy is chunked; the file is
// never buffered in memory.
func (s *Store) SaveUpload(r io.Reader, originalName string) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	if ext == "" {
		ext = ".bin"
	}
	outPath := filepath.Join(s.baseDir, uuid.NewString()+ext)

	out, err := os.Create(outPath)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, r); err != nil {
		os.Remove(outPath)
		return "", fmt.Errorf("write upload: %w", err)
	}
	return outPath, nil
}

// RunWorkspace creates and returns the scratch directory for one run.
func (s *Store) RunWorkspace(runID string) (string, error) {
	dir := filepath.Join(s.baseDir, "runs", runID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create run workspace: %w", err)
	}
	return dir, nil
}

// CleanupWorkspace removes a run's scratch directory. Heatmaps are written to
// the upload root, so they survive cleanup.
func (s *Store) CleanupWorkspace(runID string) {
	os.RemoveAll(filepath.Join(s.baseDir, "runs", runID))
}

// HeatmapPath returns the durable path for a run's heatmap artifact.
func (s *Store) HeatmapPath(runID string) string {
	return filepath.Join(s.baseDir, runID+"_heatmap.png")
}

// GridPath returns the durable path for a run's top-frames grid artifact.
func (s *Store) GridPath(runID string) string {
	return filepath.Join(s.baseDir, runID+"_grid.png")
}

// AudioPath returns the durable path for a run's extracted audio track.
// Stored reports reference it, so it lives outside the run workspace.
func (s *Store) AudioPath(runID string) string {
	return filepath.Join(s.baseDir, runID+"_audio.wav")
}
