package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"mediacorral/internal/config"
)

func TestLoadCoordinatorUsesEnvTMDBKeyAndExpandsPaths(t *testing.T) {
	t.Setenv("TMDB_API_KEY", "test-key")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.LoadCoordinator("")
	if err != nil {
		t.Fatalf("LoadCoordinator returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	if cfg.TMDBAPIKey != "test-key" {
		t.Fatalf("expected TMDB key from env, got %q", cfg.TMDBAPIKey)
	}
	wantData := filepath.Join(tempHome, ".local", "share", "mediacorral", "data")
	if cfg.DataDirectory != wantData {
		t.Fatalf("unexpected data directory: got %q want %q", cfg.DataDirectory, wantData)
	}
	if cfg.ServeAddress != "127.0.0.1:7487" {
		t.Fatalf("unexpected serve address: %q", cfg.ServeAddress)
	}
	if cfg.Logging.Format != "console" {
		t.Fatalf("unexpected log format: %q", cfg.Logging.Format)
	}
}

func TestLoadCoordinatorMissingTMDBKeyFails(t *testing.T) {
	t.Setenv("TMDB_API_KEY", "")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	if _, _, _, err := config.LoadCoordinator(""); err == nil {
		t.Fatal("expected error for missing tmdb_api_key")
	}
}

func TestLoadCoordinatorFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "coordinator.toml")
	body := `
data_directory = "` + dir + `/data"
tmdb_api_key = "file-key"
serve_address = "0.0.0.0:9000"
enable_autorip = true

[drive_controllers]
drive0 = "127.0.0.1:7488"

[exports_dirs.movies]
media_type = "movie"
link_type = "symlink"
dir = "` + dir + `/movies"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, exists, err := config.LoadCoordinator(path)
	if err != nil {
		t.Fatalf("LoadCoordinator: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to exist")
	}
	if resolved != path {
		t.Fatalf("resolved = %q, want %q", resolved, path)
	}
	if cfg.ServeAddress != "0.0.0.0:9000" {
		t.Fatalf("unexpected serve address: %q", cfg.ServeAddress)
	}
	if got := cfg.DriveControllers["drive0"]; got != "127.0.0.1:7488" {
		t.Fatalf("unexpected drive_controllers entry: %q", got)
	}
	spec, ok := cfg.ExportsDirs["movies"]
	if !ok {
		t.Fatal("expected exports_dirs.movies to be present")
	}
	if spec.LinkType != "symlink" {
		t.Fatalf("unexpected link type: %q", spec.LinkType)
	}
}

func TestLoadCoordinatorRejectsBadExportSpec(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "coordinator.toml")
	body := `
data_directory = "` + dir + `/data"
tmdb_api_key = "k"

[exports_dirs.movies]
media_type = "game"
link_type = "hardlink"
dir = "` + dir + `/movies"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, _, err := config.LoadCoordinator(path); err == nil {
		t.Fatal("expected error for invalid media_type")
	}
}

func TestLoadDriveControllerExpandsPathsAndDefaultsDrive(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, _, exists, err := config.LoadDriveController("")
	if err != nil {
		t.Fatalf("LoadDriveController: %v", err)
	}
	if exists {
		t.Fatal("expected no config file present")
	}
	if len(cfg.Drives) != 1 || cfg.Drives[0].Path != "/dev/sr0" {
		t.Fatalf("unexpected default drives: %+v", cfg.Drives)
	}
	wantRip := filepath.Join(tempHome, ".local", "share", "mediacorral", "rips")
	if cfg.RipDirectory != wantRip {
		t.Fatalf("unexpected rip directory: got %q want %q", cfg.RipDirectory, wantRip)
	}
}

func TestLoadDriveControllerRejectsDuplicateDriveNames(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "drivectl.toml")
	body := `
rip_directory = "` + dir + `/rips"

[[drives]]
name = "drive0"
path = "/dev/sr0"

[[drives]]
name = "drive0"
path = "/dev/sr1"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, _, err := config.LoadDriveController(path); err == nil {
		t.Fatal("expected error for duplicate drive name")
	}
}

func TestCreateCoordinatorSampleWritesParsableFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "coordinator.toml")
	if err := config.CreateCoordinatorSample(path); err != nil {
		t.Fatalf("CreateCoordinatorSample: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected sample file to exist: %v", err)
	}
}
