package api

import (
	"net/http"
	"strconv"

	"github.com/teemow/taskcal/internal/calendar"
	"github.com/teemow/taskcal/internal/tasks"
)

// CalendarResponse is returned by GET /api/calendar/{month}.
type CalendarResponse struct {
	Year        int                              `json:"year"`
	Month       int                              `json:"month"`
	Days        []calendar.DayBucket[tasks.Task] `json:"days"`
	Unscheduled int                              `json:"unscheduled"`
	Stats       calendar.Stats                   `json:"stats"`
}

func (a *API) handleListTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := tasks.Filter{
		Status:  tasks.Status(q.Get("status")),
		DueFrom: q.Get("from"),
		DueTo:   q.Get("to"),
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			a.writeError(w, r, badRequest("limit %q is not a number", raw))
			return
		}
		filter.Limit = limit
	}

	list, err := a.tasks.List(r.Context(), principal(r).UserID, filter)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, list)
}

func (a *API) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var in tasks.Input
	if err := a.decode(w, r, schemaTaskCreate, &in); err != nil {
		a.writeError(w, r, err)
		return
	}

	task, err := a.tasks.Create(r.Context(), principal(r).UserID, in)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/tasks/"+task.ID)
	WriteJSON(w, http.StatusCreated, task)
}

func (a *API) handleGetTask(w http.ResponseWriter, r *http.Request) {
	task, err := a.tasks.Get(r.Context(), principal(r).UserID, r.PathValue("id"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, task)
}

func (a *API) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	var patch tasks.Patch
	if err := a.decode(w, r, schemaTaskUpdate, &patch); err != nil {
		a.writeError(w, r, err)
		return
	}

	task, err := a.tasks.Update(r.Context(), principal(r).UserID, r.PathValue("id"), patch)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, task)
}

func (a *API) handleCompleteTask(w http.ResponseWriter, r *http.Request) {
	task, err := a.tasks.Complete(r.Context(), principal(r).UserID, r.PathValue("id"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, task)
}

func (a *API) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := a.tasks.Delete(r.Context(), principal(r).UserID, r.PathValue("id")); err != nil {
		a.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleCalendar(w http.ResponseWriter, r *http.Request) {
	month, err := calendar.ParseMonth(r.PathValue("month"))
	if err != nil {
		a.writeError(w, r, badRequest("%v", err))
		return
	}

	days, stats, err := a.tasks.Month(r.Context(), principal(r).UserID, month)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, CalendarResponse{
		Year:        month.Year(),
		Month:       int(month.Month()),
		Days:        days,
		Unscheduled: stats.Unscheduled(),
		Stats:       stats,
	})
}
