package http

import (
	"context"
	"net/http"

	"github.com/secmon-lab/oprisk/pkg/domain/interfaces"
	"github.com/secmon-lab/oprisk/pkg/domain/model"
	"github.com/secmon-lab/oprisk/pkg/utils/errutil"
)

type ctxActorKey struct{}

func contextWithActor(ctx context.Context, actor *model.Actor) context.Context {
	return context.WithValue(ctx, ctxActorKey{}, actor)
}

func actorFromContext(ctx context.Context) *model.Actor {
	actor, _ := ctx.Value(ctxActorKey{}).(*model.Actor)
	return actor
}

// actorMiddleware resolves the acting user from ActorHeader
func actorMiddleware(authz interfaces.Authorizer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actorID := r.Header.Get(ActorHeader)
			if actorID == "" {
				writeError(w, http.StatusUnauthorized, "Authentication required")
				return
			}

			actor, err := authz.Lookup(r.Context(), actorID)
			if err != nil {
				errutil.HandleHTTP(r.Context(), w, err, http.StatusInternalServerError)
				return
			}
			if actor == nil {
				writeError(w, http.StatusUnauthorized, "Unknown user")
				return
			}

			next.ServeHTTP(w, r.WithContext(contextWithActor(r.Context(), actor)))
		})
	}
}

// requireAdmin rejects actors that are not administrators
func requireAdmin(authz interfaces.Authorizer) func(http.Handler) http.Handler {
	return requireRole(func(ctx context.Context, actor *model.Actor) bool {
		return authz.IsAdministrator(ctx, actor)
	}, "Administrator access required")
}

// requireStaff rejects actors that are not staff
func requireStaff(authz interfaces.Authorizer) func(http.Handler) http.Handler {
	return requireRole(func(ctx context.Context, actor *model.Actor) bool {
		return authz.IsStaff(ctx, actor)
	}, "Staff access required")
}

func requireRole(allowed func(context.Context, *model.Actor) bool, msg string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := actorFromContext(r.Context())
			if actor == nil || !allowed(r.Context(), actor) {
				writeError(w, http.StatusForbidden, msg)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
