package upgrade

import "context"

// Repository defines the interface for pending upgrade persistence operations
type Repository interface {
	// List returns all pending upgrades
	List(ctx context.Context) ([]*Upgrade, error)

	// Delete removes a pending upgrade
	Delete(ctx context.Context, id string) error
}
