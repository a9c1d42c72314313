package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Logging holds the log sink settings shared by both daemons.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	Dir           string `toml:"dir"`
	RetentionDays int    `toml:"retention_days"`
}

// OSTLogin holds the OpenSubtitles REST API credentials used by C6/C7.
type OSTLogin struct {
	APIKey   string `toml:"api_key"`
	Username string `toml:"username"`
	Password string `toml:"password"`
}

// ExportSpec describes one export-tree destination: which media type it
// carries and whether blobs are linked in with a hard link or a symlink.
type ExportSpec struct {
	MediaType string `toml:"media_type"` // "movie" or "tv"
	LinkType  string `toml:"link_type"`  // "hardlink" or "symlink"
	Dir       string `toml:"dir"`
}

// CoordinatorConfig configures the coordinator daemon: the blob store and
// index location, catalog credentials, the RPC listen address, the export
// trees C10 links into, and which drive controllers it dispatches rip jobs
// to.
type CoordinatorConfig struct {
	DataDirectory    string                `toml:"data_directory"`
	TMDBAPIKey       string                `toml:"tmdb_api_key"`
	OSTLogin         OSTLogin              `toml:"ost_login"`
	ServeAddress     string                `toml:"serve_address"`
	ExportsDirs      map[string]ExportSpec `toml:"exports_dirs"`
	EnableAutorip    bool                  `toml:"enable_autorip"`
	DriveControllers map[string]string     `toml:"drive_controllers"`
	Logging          Logging               `toml:"logging"`
}

// DriveSpec names one optical drive a drive-controller instance manages.
type DriveSpec struct {
	Name string `toml:"name"`
	Path string `toml:"path"`
}

// DriveControllerConfig configures a drive-controller daemon: where it
// stages rips before handing them to the coordinator, its RPC listen
// address, and the drives it owns.
type DriveControllerConfig struct {
	RipDirectory string      `toml:"rip_directory"`
	Address      string      `toml:"address"`
	Drives       []DriveSpec `toml:"drives"`
	Logging      Logging     `toml:"logging"`
}

// DefaultCoordinatorConfigPath returns the absolute path to the default
// coordinator configuration file location.
func DefaultCoordinatorConfigPath() (string, error) {
	return expandPath("~/.config/mediacorral/coordinator.toml")
}

// DefaultDriveControllerConfigPath returns the absolute path to the default
// drive-controller configuration file location.
func DefaultDriveControllerConfigPath() (string, error) {
	return expandPath("~/.config/mediacorral/drivectl.toml")
}

// LoadCoordinator locates, parses, and validates the coordinator config
// file. The returned config has all path fields expanded and normalized.
func LoadCoordinator(path string) (*CoordinatorConfig, string, bool, error) {
	cfg := DefaultCoordinator()

	resolvedPath, exists, err := resolveConfigPath(path, "~/.config/mediacorral/coordinator.toml", "mediacorral-coordinator.toml")
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		if err := decodeTOMLFile(resolvedPath, &cfg); err != nil {
			return nil, "", false, err
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolvedPath, exists, nil
}

// LoadDriveController locates, parses, and validates the drive-controller
// config file.
func LoadDriveController(path string) (*DriveControllerConfig, string, bool, error) {
	cfg := DefaultDriveController()

	resolvedPath, exists, err := resolveConfigPath(path, "~/.config/mediacorral/drivectl.toml", "mediacorral-drivectl.toml")
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		if err := decodeTOMLFile(resolvedPath, &cfg); err != nil {
			return nil, "", false, err
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolvedPath, exists, nil
}

func decodeTOMLFile(path string, dst any) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	if err := toml.NewDecoder(file).Decode(dst); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

func resolveConfigPath(path, defaultHome, projectName string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultHome)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs(projectName)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func normalizeLogging(l *Logging) {
	l.Format = strings.ToLower(strings.TrimSpace(l.Format))
	switch l.Format {
	case "", "console":
		l.Format = "console"
	case "json":
	default:
		l.Format = "console"
	}
	l.Level = strings.ToLower(strings.TrimSpace(l.Level))
	if l.Level == "" {
		l.Level = defaultLogLevel
	}
	if l.RetentionDays < 0 {
		l.RetentionDays = 0
	}
}

// CreateCoordinatorSample writes a sample coordinator configuration file to
// the specified location.
func CreateCoordinatorSample(path string) error {
	sample := `# Mediacorral coordinator configuration
# ======================================

# Root of the coordinator's content-addressed blob store and sqlite index.
data_directory = "~/.local/share/mediacorral/data"

# Media identification (required)
tmdb_api_key = "your_tmdb_api_key_here"

[ost_login]
api_key = "your_opensubtitles_api_key_here"
username = ""
password = ""

# Listen address of the coordinator's HTTP API, which mediacorralctl dials.
serve_address = "127.0.0.1:7487"

# Automatically dispatch a rip job when a drive controller reports a disc.
enable_autorip = false

# name -> address of each drive-controller instance this coordinator drives.
[drive_controllers]
# drive0 = "http://127.0.0.1:7488"

# One export tree per named destination. link_type is "hardlink" or "symlink".
[exports_dirs.movies]
media_type = "movie"
link_type = "hardlink"
dir = "~/media/movies"

[exports_dirs.tv]
media_type = "tv"
link_type = "hardlink"
dir = "~/media/tv"

[logging]
format = "console"          # "console" or "json"
level = "info"
dir = "~/.local/share/mediacorral/logs"
retention_days = 60
`
	return writeSample(path, sample)
}

// CreateDriveControllerSample writes a sample drive-controller configuration
// file to the specified location.
func CreateDriveControllerSample(path string) error {
	sample := `# Mediacorral drive-controller configuration
# ============================================

rip_directory = "~/.local/share/mediacorral/rips"
address = "127.0.0.1:7488"

[[drives]]
name = "drive0"
path = "/dev/sr0"

[logging]
format = "console"
level = "info"
dir = "~/.local/share/mediacorral/logs"
retention_days = 60
`
	return writeSample(path, sample)
}

func writeSample(path, sample string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
