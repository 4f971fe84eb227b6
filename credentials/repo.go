package credentials

import "context"

// Repo is the durable holder of the single credential record.
// Load returns errors.ErrNoCredentials when nothing is stored. Save replaces the whole
// record atomically. Delete is idempotent.
type Repo interface {
	Load(ctx context.Context) (*Record, error)
	Save(ctx context.Context, record Record) error
	Delete(ctx context.Context) error
}
