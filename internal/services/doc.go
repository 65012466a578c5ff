// Package services implements the business logic between the HTTP handlers
// and the feature engine.
//
// FeatureService turns API requests into synthesis requests, applies the
// configured defaults, runs the synthesizer over the loaded snapshot and
// serializes the result. HealthService reports liveness, readiness and build
// information.
//
// Services take their collaborators through constructors and fall back to
// slog.Default() when no logger is given. Errors are returned unchanged or
// wrapped with %w so that the HTTP error handler can map domain errors to
// problem responses.
package services
