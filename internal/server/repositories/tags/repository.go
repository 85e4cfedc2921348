// Package tags keeps the shared tag vocabulary and the user-tag links.
package tags

import "context"

type Repository interface {
	// Reconcile makes the links of userID match desired exactly.
	// It must run inside the caller's transaction.
	Reconcile(ctx context.Context, userID int64, desired []string) error
	// LoadFor returns the tags of each user in one round trip.
	LoadFor(ctx context.Context, userIDs []int64) (map[int64][]string, error)
}
