// Package auth implements account registration, password login and HS256
// bearer tokens.
//
// Passwords are hashed with bcrypt. A successful Login returns a JWT whose
// subject is the user ID; Middleware verifies it on every request and puts
// the Principal into the request context:
//
//	mux.Handle("GET /api/tasks", authSvc.Middleware(listHandler))
//
//	func listHandler(w http.ResponseWriter, r *http.Request) {
//	    p, _ := auth.UserFromContext(r.Context())
//	    ...
//	}
//
// There are no refresh tokens and no revocation; a token is valid until it
// expires.
package auth
