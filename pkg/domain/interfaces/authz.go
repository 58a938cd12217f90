package interfaces

import (
	"context"

	"github.com/secmon-lab/oprisk/pkg/domain/model"
	"github.com/secmon-lab/oprisk/pkg/domain/types"
)

// Authorizer answers role and permission questions about actors. Callers gate
// operations with it before invoking use cases.
type Authorizer interface {
	// Lookup resolves an actor by ID, returning nil when unknown
	Lookup(ctx context.Context, actorID string) (*model.Actor, error)

	IsAdministrator(ctx context.Context, actor *model.Actor) bool
	IsStaff(ctx context.Context, actor *model.Actor) bool
	HasPermission(ctx context.Context, actor *model.Actor, perm types.Permission) bool
}
