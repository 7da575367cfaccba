package storage

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestManager(t *testing.T) {
	tempDir := filepath.Join(t.TempDir(), "raw")

	manager, err := NewManager(tempDir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	if info, err := os.Stat(tempDir); err != nil || !info.IsDir() {
		t.Fatalf("Expected root directory to be created")
	}

	if manager.WrittenCount() != 0 {
		t.Error("Expected initial written count to be 0")
	}

	testData := []byte("test photo data")
	path, err := manager.Save(bytes.NewReader(testData), "a.jpg")
	if err != nil {
		t.Fatalf("Failed to save file: %v", err)
	}

	if path != filepath.Join(tempDir, "a.jpg") {
		t.Errorf("Unexpected path %s", path)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read saved file: %v", err)
	}
	if !bytes.Equal(content, testData) {
		t.Error("File content does not match expected data")
	}

	if manager.WrittenCount() != 1 {
		t.Errorf("Expected written count to be 1, got %d", manager.WrittenCount())
	}
}

func TestSaveOverwrites(t *testing.T) {
	manager, err := NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	if _, err := manager.Save(strings.NewReader("first version"), "a.jpg"); err != nil {
		t.Fatalf("First save failed: %v", err)
	}
	path, err := manager.Save(strings.NewReader("second"), "a.jpg")
	if err != nil {
		t.Fatalf("Second save failed: %v", err)
	}

	content, _ := os.ReadFile(path)
	if string(content) != "second" {
		t.Errorf("Expected overwrite, got %q", content)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("connection reset")
}

func TestSaveFailureLeavesNoFile(t *testing.T) {
	dir := t.TempDir()
	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	if _, err := manager.Save(failingReader{}, "broken.jpg"); err == nil {
		t.Fatal("Expected error from failing reader")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("Failed to read directory: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Expected no files after failed save, found %d", len(entries))
	}
	if manager.WrittenCount() != 0 {
		t.Error("Failed save must not count as written")
	}
}

func TestWriteFileMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "a.jpg")
	if err := WriteFile(strings.NewReader("x"), path); err == nil {
		t.Error("Expected error when parent directory does not exist")
	}
}
