package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the coordinator configuration is usable.
func (c *CoordinatorConfig) Validate() error {
	if strings.TrimSpace(c.DataDirectory) == "" {
		return errors.New("data_directory must be set")
	}
	if c.TMDBAPIKey == "" {
		defaultPath, err := DefaultCoordinatorConfigPath()
		if err != nil {
			defaultPath = "~/.config/mediacorral/coordinator.toml"
		}
		return fmt.Errorf("tmdb_api_key is required. Set TMDB_API_KEY env var or edit %s", defaultPath)
	}
	for name, spec := range c.ExportsDirs {
		switch spec.MediaType {
		case "movie", "tv":
		default:
			return fmt.Errorf("exports_dirs.%s.media_type must be \"movie\" or \"tv\", got %q", name, spec.MediaType)
		}
		switch spec.LinkType {
		case "hardlink", "symlink":
		default:
			return fmt.Errorf("exports_dirs.%s.link_type must be \"hardlink\" or \"symlink\", got %q", name, spec.LinkType)
		}
		if strings.TrimSpace(spec.Dir) == "" {
			return fmt.Errorf("exports_dirs.%s.dir must be set", name)
		}
	}
	if c.EnableAutorip && len(c.DriveControllers) == 0 {
		return errors.New("enable_autorip requires at least one entry in drive_controllers")
	}
	return nil
}

// Validate ensures the drive-controller configuration is usable.
func (c *DriveControllerConfig) Validate() error {
	if strings.TrimSpace(c.RipDirectory) == "" {
		return errors.New("rip_directory must be set")
	}
	if len(c.Drives) == 0 {
		return errors.New("drives must name at least one optical drive")
	}
	seen := make(map[string]struct{}, len(c.Drives))
	for _, drive := range c.Drives {
		if drive.Name == "" {
			return errors.New("drives[].name must be set")
		}
		if drive.Path == "" {
			return fmt.Errorf("drives.%s.path must be set", drive.Name)
		}
		if _, dup := seen[drive.Name]; dup {
			return fmt.Errorf("drives[].name %q is not unique", drive.Name)
		}
		seen[drive.Name] = struct{}{}
	}
	return nil
}
