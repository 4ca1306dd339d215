package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/citygrid/road-rotate-game/game/engine"
)

func writeLevelFile(t *testing.T, dir, name string, file *LevelFile) {
	t.Helper()
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		t.Fatalf("Failed to marshal level: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name+".json"), data, 0644); err != nil {
		t.Fatalf("Failed to write level file: %v", err)
	}
}

func TestNewManager_MissingDirectory(t *testing.T) {
	if _, err := NewManager("/nonexistent/levels"); err == nil {
		t.Error("Expected error for a missing level directory")
	}
}

func TestNewManager_EmptyDirectoryUsesBuiltin(t *testing.T) {
	manager, err := NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	def := manager.GetDefault()
	if def == nil {
		t.Fatal("Expected a built-in default level")
	}
	if def.Name != "default" {
		t.Errorf("Expected built-in default, got %q", def.Name)
	}
	if err := engine.ValidateLevel(def.Level); err != nil {
		t.Errorf("Built-in level failed validation: %v", err)
	}
}

func TestLoadLevel(t *testing.T) {
	dir := t.TempDir()
	builtin := BuiltinLevel()
	builtin.Name = "downtown"
	writeLevelFile(t, dir, "downtown", builtin)

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	file, err := manager.LoadLevel("downtown")
	if err != nil {
		t.Fatalf("LoadLevel failed: %v", err)
	}
	if file.Name != "downtown" {
		t.Errorf("Expected name 'downtown', got %q", file.Name)
	}
	if len(file.Level.Destinations) != 2 {
		t.Errorf("Expected 2 destinations, got %d", len(file.Level.Destinations))
	}

	// Second load must come from cache and return the same instance.
	again, err := manager.LoadLevel("downtown")
	if err != nil {
		t.Fatalf("Cached LoadLevel failed: %v", err)
	}
	if again != file {
		t.Error("Expected cached load to return the same instance")
	}
}

func TestLoadLevel_NotFound(t *testing.T) {
	manager, err := NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	if _, err := manager.LoadLevel("missing"); !errors.Is(err, ErrLevelNotFound) {
		t.Errorf("Expected ErrLevelNotFound, got %v", err)
	}
}

func TestLoadLevel_RejectsInvalid(t *testing.T) {
	dir := t.TempDir()

	// A level whose landmark cannot reach the turnpike.
	broken := BuiltinLevel()
	broken.Level.Roads[0].SolutionRotation = 90
	writeLevelFile(t, dir, "broken", broken)

	if err := os.WriteFile(filepath.Join(dir, "garbage.json"), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	if _, err := manager.LoadLevel("broken"); !errors.Is(err, ErrInvalidLevel) {
		t.Errorf("Expected ErrInvalidLevel, got %v", err)
	}
	if _, err := manager.LoadLevel("garbage"); err == nil {
		t.Error("Expected error for malformed JSON")
	}
}

func TestListLevels_SkipsInvalid(t *testing.T) {
	dir := t.TempDir()
	writeLevelFile(t, dir, "good", BuiltinLevel())

	broken := BuiltinLevel()
	broken.Level.Destinations = nil
	writeLevelFile(t, dir, "bad", broken)

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	levels, err := manager.ListLevels()
	if err != nil {
		t.Fatalf("ListLevels failed: %v", err)
	}
	if len(levels) != 1 {
		t.Fatalf("Expected 1 listed level, got %d", len(levels))
	}
	if levels[0].LevelID != "good" {
		t.Errorf("Expected level ID 'good', got %q", levels[0].LevelID)
	}
	if levels[0].GridSize != 5 || levels[0].Destinations != 2 {
		t.Errorf("Unexpected listing details: %+v", levels[0])
	}
}

func TestDefaultLevel_PrefersClassic(t *testing.T) {
	dir := t.TempDir()

	classic := BuiltinLevel()
	classic.Name = "classic city"
	writeLevelFile(t, dir, "classic", classic)

	other := BuiltinLevel()
	other.Name = "other"
	writeLevelFile(t, dir, "aaa_other", other)

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	if got := manager.GetDefault().Name; got != "classic city" {
		t.Errorf("Expected 'classic' as default, got %q", got)
	}
}

func TestSetDefault(t *testing.T) {
	dir := t.TempDir()
	other := BuiltinLevel()
	other.Name = "harborfront"
	writeLevelFile(t, dir, "harborfront", other)

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	if err := manager.SetDefault("harborfront"); err != nil {
		t.Fatalf("SetDefault failed: %v", err)
	}
	if got := manager.GetDefault().Name; got != "harborfront" {
		t.Errorf("Expected 'harborfront' as default, got %q", got)
	}

	if err := manager.SetDefault("missing"); !errors.Is(err, ErrLevelNotFound) {
		t.Errorf("Expected ErrLevelNotFound, got %v", err)
	}
}

func TestSaveLevel_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	file := BuiltinLevel()
	file.Name = "saved"
	if err := manager.SaveLevel("saved", file); err != nil {
		t.Fatalf("SaveLevel failed: %v", err)
	}

	if err := manager.RefreshCache(); err != nil {
		t.Fatalf("RefreshCache failed: %v", err)
	}

	loaded, err := manager.LoadLevel("saved")
	if err != nil {
		t.Fatalf("LoadLevel after save failed: %v", err)
	}
	if loaded.Name != "saved" {
		t.Errorf("Expected name 'saved', got %q", loaded.Name)
	}
}

func TestRefreshCache_ReturnsPromptly(t *testing.T) {
	manager, err := NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	// RefreshCache reloads the default level while holding the write lock,
	// so the reload path must not re-acquire the mutex.
	done := make(chan error, 1)
	go func() {
		done <- manager.RefreshCache()
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("RefreshCache failed: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("RefreshCache did not return within 3s")
	}

	if manager.GetDefault() == nil {
		t.Error("Expected a default level after refresh")
	}
}

func TestRefreshCache_PrefersClassic(t *testing.T) {
	dir := t.TempDir()
	file := BuiltinLevel()
	file.Name = "classic"
	writeLevelFile(t, dir, "classic", file)

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	if err := manager.RefreshCache(); err != nil {
		t.Fatalf("RefreshCache failed: %v", err)
	}
	if got := manager.GetDefault().Name; got != "classic" {
		t.Errorf("Expected 'classic' as default after refresh, got %q", got)
	}
}

func TestSaveLevel_RejectsInvalid(t *testing.T) {
	manager, err := NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	broken := BuiltinLevel()
	broken.Level.Goal = nil
	if err := manager.SaveLevel("broken", broken); !errors.Is(err, ErrInvalidLevel) {
		t.Errorf("Expected ErrInvalidLevel, got %v", err)
	}

	if err := manager.SaveLevel("empty", &LevelFile{Name: "empty"}); !errors.Is(err, ErrInvalidLevel) {
		t.Errorf("Expected ErrInvalidLevel for a missing payload, got %v", err)
	}
}

func TestInstantiate_IsIndependentCopy(t *testing.T) {
	file := BuiltinLevel()
	level := file.Instantiate()

	level.Roads[0].Rotation = 270
	level.Goal.Rotation = 90

	if file.Level.Roads[0].Rotation == 270 {
		t.Error("Rotating an instantiated road tile mutated the cached level")
	}
	if file.Level.Goal.Rotation == 90 {
		t.Error("Rotating an instantiated goal mutated the cached level")
	}

	if err := engine.ValidateLevel(level); err != nil {
		t.Errorf("Instantiated level failed validation: %v", err)
	}
}
