package config

const (
	defaultDataDirectory    = "~/.local/share/mediacorral/data"
	defaultRipDirectory     = "~/.local/share/mediacorral/rips"
	defaultServeAddress     = "127.0.0.1:7487"
	defaultDriveAddress     = "127.0.0.1:7488"
	defaultLogDir           = "~/.local/share/mediacorral/logs"
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultLogRetentionDays = 60
	defaultOpticalDrive     = "/dev/sr0"
)

// DefaultCoordinator returns a CoordinatorConfig populated with repository
// defaults.
func DefaultCoordinator() CoordinatorConfig {
	return CoordinatorConfig{
		DataDirectory:    defaultDataDirectory,
		ServeAddress:     defaultServeAddress,
		ExportsDirs:      map[string]ExportSpec{},
		DriveControllers: map[string]string{},
		Logging:          defaultLogging(),
	}
}

// DefaultDriveController returns a DriveControllerConfig populated with
// repository defaults.
func DefaultDriveController() DriveControllerConfig {
	return DriveControllerConfig{
		RipDirectory: defaultRipDirectory,
		Address:      defaultDriveAddress,
		Drives:       []DriveSpec{{Name: "drive0", Path: defaultOpticalDrive}},
		Logging:      defaultLogging(),
	}
}

func defaultLogging() Logging {
	return Logging{
		Format:        defaultLogFormat,
		Level:         defaultLogLevel,
		Dir:           defaultLogDir,
		RetentionDays: defaultLogRetentionDays,
	}
}
