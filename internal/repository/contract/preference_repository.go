// FILE: internal/repository/contract/preference_repository.go
// Repository interface for client-side preferences (theme, session cookies)
package contract

import "context"

type PreferenceRepository interface {
	// Get reports found=false for a key that was never set.
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
