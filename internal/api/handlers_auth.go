package api

import (
	"net/http"
	"time"

	"github.com/teemow/taskcal/internal/auth"
)

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is returned by POST /api/auth/login.
type LoginResponse struct {
	Token     string    `json:"token"`
	TokenType string    `json:"token_type"`
	ExpiresAt time.Time `json:"expires_at"`
	User      auth.User `json:"user"`
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := a.decode(w, r, schemaRegister, &req); err != nil {
		a.writeError(w, r, err)
		return
	}

	user, err := a.auth.Register(r.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, user)
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := a.decode(w, r, schemaLogin, &req); err != nil {
		a.writeError(w, r, err)
		return
	}

	token, user, err := a.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	// within a second of the exp claim
	expires := time.Now().Add(a.auth.Tokens().TTL())
	WriteJSON(w, http.StatusOK, LoginResponse{
		Token:     token,
		TokenType: "Bearer",
		ExpiresAt: expires.UTC().Truncate(time.Second),
		User:      user,
	})
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	user, err := a.auth.User(r.Context(), principal(r).UserID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, user)
}
