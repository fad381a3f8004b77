package api

import (
	"net/http"
	"strconv"
)

func (a *API) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	unreadOnly := false
	if raw := r.URL.Query().Get("unread"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			a.writeError(w, r, badRequest("unread %q is not a boolean", raw))
			return
		}
		unreadOnly = v
	}

	list, err := a.notify.List(r.Context(), principal(r).UserID, unreadOnly)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, list)
}

func (a *API) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	if err := a.notify.MarkRead(r.Context(), principal(r).UserID, r.PathValue("id")); err != nil {
		a.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	n, err := a.notify.MarkAllRead(r.Context(), principal(r).UserID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]int64{"updated": n})
}
