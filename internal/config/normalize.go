package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *CoordinatorConfig) normalize() error {
	var err error
	if c.DataDirectory, err = expandPath(c.DataDirectory); err != nil {
		return fmt.Errorf("data_directory: %w", err)
	}
	c.ServeAddress = strings.TrimSpace(c.ServeAddress)
	if c.ServeAddress == "" {
		c.ServeAddress = defaultServeAddress
	}
	if c.ExportsDirs == nil {
		c.ExportsDirs = map[string]ExportSpec{}
	}
	for name, spec := range c.ExportsDirs {
		spec.MediaType = strings.ToLower(strings.TrimSpace(spec.MediaType))
		spec.LinkType = strings.ToLower(strings.TrimSpace(spec.LinkType))
		if spec.LinkType == "" {
			spec.LinkType = "hardlink"
		}
		if spec.Dir, err = expandPath(spec.Dir); err != nil {
			return fmt.Errorf("exports_dirs.%s.dir: %w", name, err)
		}
		c.ExportsDirs[name] = spec
	}
	if c.DriveControllers == nil {
		c.DriveControllers = map[string]string{}
	}
	c.TMDBAPIKey = strings.TrimSpace(c.TMDBAPIKey)
	if c.TMDBAPIKey == "" {
		c.TMDBAPIKey = lookupEnv("TMDB_API_KEY")
	}
	c.OSTLogin.APIKey = strings.TrimSpace(c.OSTLogin.APIKey)
	if c.OSTLogin.APIKey == "" {
		c.OSTLogin.APIKey = lookupEnv("OPENSUBTITLES_API_KEY")
	}
	c.OSTLogin.Username = strings.TrimSpace(c.OSTLogin.Username)
	c.OSTLogin.Password = strings.TrimSpace(c.OSTLogin.Password)
	normalizeLogging(&c.Logging)
	return nil
}

func (c *DriveControllerConfig) normalize() error {
	var err error
	if c.RipDirectory, err = expandPath(c.RipDirectory); err != nil {
		return fmt.Errorf("rip_directory: %w", err)
	}
	c.Address = strings.TrimSpace(c.Address)
	if c.Address == "" {
		c.Address = defaultDriveAddress
	}
	for i, drive := range c.Drives {
		c.Drives[i].Name = strings.TrimSpace(drive.Name)
		c.Drives[i].Path = strings.TrimSpace(drive.Path)
	}
	normalizeLogging(&c.Logging)
	return nil
}

func lookupEnv(key string) string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return ""
	}
	return strings.TrimSpace(value)
}
