// manager_test.go - Tests for storage layer
package storage

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func createTestStore(t *testing.T) *LocalStore {
	t.Helper()
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	return store
}

func TestNewLocalStore(t *testing.T) {
	t.Run("creates upload directory", func(t *testing.T) {
		uploadDir := filepath.Join(t.TempDir(), "uploads")

		store, err := NewLocalStore(uploadDir)
		if err != nil {
			t.Fatalf("Failed to create store: %v", err)
		}

		if _, err := os.Stat(uploadDir); os.IsNotExist(err) {
			t.Error("Expected upload directory to be created")
		}
		if store.uploadDir != uploadDir {
			t.Errorf("Expected uploadDir %s, got %s", uploadDir, store.uploadDir)
		}
	})
}

func TestLocalStore_Save(t *testing.T) {
	t.Run("saves file from reader", func(t *testing.T) {
		store := createTestStore(t)

		content := "1 0.0 0.1 0.2\n"
		info, err := store.Save("rotor.dat", strings.NewReader(content))
		if err != nil {
			t.Fatalf("Failed to save file: %v", err)
		}

		if info.ID == "" {
			t.Error("Expected ID to be set")
		}
		if info.Name != "rotor.dat" {
			t.Errorf("Expected name 'rotor.dat', got %v", info.Name)
		}
		if info.Size != int64(len(content)) {
			t.Errorf("Expected size %d, got %d", len(content), info.Size)
		}
		if info.Status != "uploaded" {
			t.Errorf("Expected status 'uploaded', got %v", info.Status)
		}

		data, err := os.ReadFile(filepath.Join(store.uploadDir, info.ID))
		if err != nil {
			t.Fatalf("Failed to read saved file: %v", err)
		}
		if string(data) != content {
			t.Errorf("Expected content %q, got %q", content, string(data))
		}
	})

	t.Run("saves empty file", func(t *testing.T) {
		store := createTestStore(t)

		info, err := store.Save("empty.inp", strings.NewReader(""))
		if err != nil {
			t.Fatalf("Failed to save empty file: %v", err)
		}
		if info.Size != 0 {
			t.Errorf("Expected size 0, got %d", info.Size)
		}
	})
}

func TestLocalStore_ReadAll(t *testing.T) {
	store := createTestStore(t)
	data := []byte("*NODE\n1, 0.0, 0.0, 0.0\n")

	info, err := store.Save("rotor.inp", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Failed to save file: %v", err)
	}

	got, err := store.ReadAll(info.ID)
	if err != nil {
		t.Fatalf("Failed to read back: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Error("Read data doesn't match original")
	}

	if _, err := store.ReadAll("non-existent-id"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestLocalStore_ReadAllMissingOnDisk(t *testing.T) {
	store := createTestStore(t)

	info, err := store.Save("rotor.dat", strings.NewReader("content"))
	if err != nil {
		t.Fatalf("Failed to save file: %v", err)
	}
	if err := os.Remove(filepath.Join(store.uploadDir, info.ID)); err != nil {
		t.Fatalf("Failed to remove file: %v", err)
	}

	if _, err := store.ReadAll(info.ID); err == nil {
		t.Error("Expected error when the stored file is gone")
	}
}

func TestLocalStore_Delete(t *testing.T) {
	t.Run("deletes existing file", func(t *testing.T) {
		store := createTestStore(t)

		info, err := store.Save("rotor.dat", strings.NewReader("content"))
		if err != nil {
			t.Fatalf("Failed to save file: %v", err)
		}
		filePath := filepath.Join(store.uploadDir, info.ID)

		if err := store.Delete(info.ID); err != nil {
			t.Fatalf("Failed to delete file: %v", err)
		}
		if _, err := store.ReadAll(info.ID); !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected ErrNotFound after delete, got %v", err)
		}
		if _, err := os.Stat(filePath); !os.IsNotExist(err) {
			t.Error("Physical file should be deleted")
		}
		if info.Status != "released" {
			t.Errorf("Expected status 'released', got %s", info.Status)
		}
	})

	t.Run("returns error for non-existent file", func(t *testing.T) {
		store := createTestStore(t)
		if err := store.Delete("non-existent-id"); !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})
}
