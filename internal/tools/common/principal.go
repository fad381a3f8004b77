package common

import (
	"context"
	"errors"

	"github.com/teemow/taskcal/internal/auth"
	"github.com/teemow/taskcal/internal/server"
)

// ErrNoPrincipal is returned when a tool runs without an authenticated user
// and no default user was configured.
var ErrNoPrincipal = errors.New("no authenticated user: sign in over HTTP or start the stdio server with --user")

// Principal returns the user a tool acts for.
func Principal(ctx context.Context, sc *server.ServerContext) (auth.Principal, error) {
	p, ok := sc.PrincipalFromContext(ctx)
	if !ok {
		return auth.Principal{}, ErrNoPrincipal
	}
	return p, nil
}
