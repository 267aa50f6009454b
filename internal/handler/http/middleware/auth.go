package middleware

import (
	"context"
	"net/http"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-backend-go/internal/handler/http/response"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/jwt"
	"github.com/go-chi/jwtauth/v5"
)

type actorKey struct{}

// AuthRequired rejects requests without a verified access token and
// stores the caller as an employee.Actor. It expects jwtauth.Verifier to
// run first.
func AuthRequired(next http.Handler) http.Handler {
	hfn := func(w http.ResponseWriter, r *http.Request) {
		token, claims, err := jwtauth.FromContext(r.Context())
		if err != nil {
			response.Unauthorized(w, "Invalid or expired token")
			return
		}
		if token == nil {
			response.Unauthorized(w, "Missing token")
			return
		}

		tokenType, ok := claims["type"].(string)
		if !ok || tokenType != jwt.TokenTypeAccess {
			response.Unauthorized(w, "Invalid token type")
			return
		}

		employeeID, ok := claims["employee_id"].(string)
		if !ok || employeeID == "" {
			response.Unauthorized(w, "Invalid token claims")
			return
		}

		role, _ := claims["role"].(string)
		actor := employee.Actor{EmployeeID: employeeID, Role: employee.Role(role)}

		next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
	}
	return http.HandlerFunc(hfn)
}

// WithActor returns a copy of ctx carrying actor.
func WithActor(ctx context.Context, actor employee.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext returns the authenticated caller.
func ActorFromContext(ctx context.Context) (employee.Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(employee.Actor)
	return actor, ok && actor.EmployeeID != ""
}
