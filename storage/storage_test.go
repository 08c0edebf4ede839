package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSaveUploadPreservesExtension(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	path, err := s.SaveUpload(strings.NewReader("video bytes"), "Holiday Clip.MP4")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if filepath.Ext(path) != ".mp4" {
		t.Errorf("extension = %q, want .mp4", filepath.Ext(path))
	}

	data, err := os.ReadFile(path)
	if err != nil || string(data) != "video bytes" {
		t.Errorf("content roundtrip failed: %q, %v", data, err)
	}
}

func TestSaveUploadSameNameNoCollision(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	p1, _ := s.SaveUpload(strings.NewReader("one"), "clip.mp4")
	p2, _ := s.SaveUpload(strings.NewReader("two"), "clip.mp4")
	if p1 == p2 {
		t.Error("same original filename must not collide")
	}
}

func TestSaveUploadMissingExtension(t *testing.T) {
	s, _ := New(t.TempDir())
	path, err := s.SaveUpload(strings.NewReader("x"), "noext")
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Ext(path) != ".bin" {
		t.Errorf("extension = %q, want .bin", filepath.Ext(path))
	}
}

func TestWorkspaceLifecycle(t *testing.T) {
	s, _ := New(t.TempDir())

	dir, err := s.RunWorkspace("run-1")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("workspace not created: %v", err)
	}

	s.CleanupWorkspace("run-1")
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Error("workspace not removed")
	}
}

func TestHeatmapPathOutsideWorkspace(t *testing.T) {
	s, _ := New(t.TempDir())
	hm := s.HeatmapPath("run-1")
	ws, _ := s.RunWorkspace("run-1")
	if strings.HasPrefix(hm, ws) {
		t.Error("heatmap must live outside the run workspace so it survives cleanup")
	}
}
