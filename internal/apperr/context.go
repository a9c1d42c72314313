package apperr

import "context"

type contextKey string

const (
	jobIDKey     contextKey = "job_id"
	driveIDKey   contextKey = "drive_id"
	componentKey contextKey = "component"
	requestIDKey contextKey = "request_id"
)

// WithJobID annotates context with the rip job identifier.
func WithJobID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, jobIDKey, id)
}

// JobIDFromContext extracts the rip job identifier if present.
func JobIDFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(jobIDKey).(string)
	return v, ok && v != ""
}

// WithDriveID annotates context with the drive identifier.
func WithDriveID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, driveIDKey, id)
}

// DriveIDFromContext extracts the drive identifier if present.
func DriveIDFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(driveIDKey).(string)
	return v, ok && v != ""
}

// WithComponent annotates context with the component name (ripperbridge,
// matcher, opensubtitles, ...) for log correlation.
func WithComponent(ctx context.Context, name string) context.Context {
	if name == "" {
		return ctx
	}
	return context.WithValue(ctx, componentKey, name)
}

// ComponentFromContext returns the component name if present.
func ComponentFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(componentKey).(string)
	return v, ok && v != ""
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(requestIDKey).(string)
	return v, ok && v != ""
}
