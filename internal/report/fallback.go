package report

import (
	"context"
	"log/slog"
)

// Compile-time interface check.
var _ Store = (*FallbackStore)(nil)

// FallbackStore writes to a primary store and falls back to a secondary one
// when the primary fails. A report is only lost when both stores fail.
type FallbackStore struct {
	primary   Store
	secondary Store
}

// NewFallbackStore chains primary and secondary stores. The secondary may be
// nil, in which case primary failures are returned directly.
func NewFallbackStore(primary, secondary Store) *FallbackStore {
	return &FallbackStore{primary: primary, secondary: secondary}
}

// Save attempts the primary store first. On failure it logs a warning and
// retries against the secondary.
func (fs *FallbackStore) Save(ctx context.Context, r *Report) error {
	err := fs.primary.Save(ctx, r)
	if err == nil {
		return nil
	}
	if fs.secondary == nil {
		return err
	}

	slog.Warn("primary report store failed, using fallback",
		"session_id", r.SessionID,
		"error", err)
	return fs.secondary.Save(ctx, r)
}
