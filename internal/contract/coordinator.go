package contract

import (
	"context"

	"mediacorral/internal/drive"
	"mediacorral/internal/idx"
)

// CoordinatorClient is the surface the Coordinator exposes to its own
// clients (the CLI, and any other external caller): drive control relayed
// to the owning Drive Controller host, catalog search/import, export
// rebuilds, autorip configuration, reference-subtitle fetch, and the
// job/episode/tag queries a human-facing review flow needs.
type CoordinatorClient interface {
	ListDrives(ctx context.Context) ([]DriveMeta, error)
	GetDriveState(ctx context.Context, driveID string) (drive.DriveState, error)
	Eject(ctx context.Context, driveID string) error
	Retract(ctx context.Context, driveID string) error

	// StartRip allocates a job and begins ripping driveID, returning the
	// new job's ID immediately; progress is observed via
	// StreamRipUpdates.
	StartRip(ctx context.Context, driveID string, req RipMediaRequest) (jobID int64, err error)
	StreamRipUpdates(ctx context.Context, jobID int64) (<-chan RipUpdate, error)

	SearchCatalog(ctx context.Context, req CatalogSearchRequest) (CatalogSearchPage, error)
	ImportCatalog(ctx context.Context, req CatalogImportRequest) error

	RebuildExportsDir(ctx context.Context, name string) error

	GetAutorip(ctx context.Context) (bool, error)
	SetAutorip(ctx context.Context, enabled bool) error

	FetchSubtitle(ctx context.Context, req SubtitleFetchRequest) (SubtitleFetchResult, error)

	JobByID(ctx context.Context, id int64) (idx.RipJob, error)
	EpisodeByID(ctx context.Context, id int64) (idx.TvEpisode, error)

	// TagFile finalizes a VideoFile's catalog identity once a human has
	// picked the best-scoring MatchInfo row.
	TagFile(ctx context.Context, req TagFileRequest) error
}
