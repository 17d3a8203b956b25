package handlers

import (
	"net/http"
)

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"active_batches": a.Batches.ActiveCount(),
		"archive":        a.History != nil,
	})
}
