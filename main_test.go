package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/citygrid/road-rotate-game/game/config"
)

func TestConstants(t *testing.T) {
	if Version == "" {
		t.Error("Version should not be empty")
	}
	if AppName == "" {
		t.Error("AppName should not be empty")
	}

	if Version != "1.0.0" {
		t.Errorf("Expected version 1.0.0, got %s", Version)
	}
	if AppName != "Road Rotate City Puzzle Server" {
		t.Errorf("Unexpected app name: %s", AppName)
	}
}

// seedLevelDir writes the built-in level into a temp directory so the level
// manager has something to load.
func seedLevelDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	mgr, err := config.NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create level manager: %v", err)
	}
	if err := mgr.SaveLevel("default", config.BuiltinLevel()); err != nil {
		t.Fatalf("Failed to save built-in level: %v", err)
	}
	return dir
}

func TestInitializeServices(t *testing.T) {
	dir := seedLevelDir(t)

	oldLevelDir := *levelDir
	oldHighScore := *highScoreFile
	defer func() {
		*levelDir = oldLevelDir
		*highScoreFile = oldHighScore
	}()

	*levelDir = dir
	*highScoreFile = filepath.Join(t.TempDir(), "highscores.json")

	gameService, err := initializeServices()
	if err != nil {
		t.Fatalf("initializeServices failed: %v", err)
	}
	if gameService == nil {
		t.Fatal("Expected a game service, got nil")
	}

	// The service should be usable right away
	difficulties := gameService.ListDifficulties(context.Background())
	if len(difficulties) == 0 {
		t.Error("Expected the service to report difficulties")
	}
}

func TestInitializeServices_MissingLevelDir(t *testing.T) {
	oldLevelDir := *levelDir
	defer func() { *levelDir = oldLevelDir }()

	*levelDir = "/non/existent/levels"

	if _, err := initializeServices(); err == nil {
		t.Error("Expected an error for a missing level directory")
	}
}

func TestFlagDefaults(t *testing.T) {
	tests := []struct {
		name     string
		flagName string
		expected string
	}{
		{"port default", "port", "8080"},
		{"host default", "host", "localhost"},
		{"debug default", "debug", "false"},
		{"version default", "version", "false"},
		{"ngrok default", "ngrok", "false"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := flag.Lookup(tt.flagName)
			if f == nil {
				t.Fatalf("Flag %s not registered", tt.flagName)
			}
			if f.DefValue != tt.expected {
				t.Errorf("Expected %s default %q, got %q", tt.flagName, tt.expected, f.DefValue)
			}
		})
	}
}

func TestGetLevelDirDefault(t *testing.T) {
	old, had := os.LookupEnv("LEVEL_DIR")
	defer func() {
		if had {
			os.Setenv("LEVEL_DIR", old)
		} else {
			os.Unsetenv("LEVEL_DIR")
		}
	}()

	os.Unsetenv("LEVEL_DIR")
	if got := getLevelDirDefault(); got != "levels" {
		t.Errorf("Expected default level dir 'levels', got %q", got)
	}

	os.Setenv("LEVEL_DIR", "/custom/levels")
	if got := getLevelDirDefault(); got != "/custom/levels" {
		t.Errorf("Expected level dir from env, got %q", got)
	}
}
