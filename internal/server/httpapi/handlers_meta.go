package httpapi

import (
	"net/http"
)

func (a *API) root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message": APITitle,
		"version": APIVersion,
		"status":  "operational",
		"endpoints": map[string]string{
			"auth":  APIPrefix + "/auth",
			"users": APIPrefix + "/users",
		},
	})
}

func (a *API) health(w http.ResponseWriter, r *http.Request) {
	now := a.now()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": float64(now.UnixNano()) / 1e9,
	})
}

func (a *API) status(w http.ResponseWriter, r *http.Request) {
	stats, err := a.users.Stats(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"api":        APITitle,
		"version":    APIVersion,
		"status":     "operational",
		"database":   a.store,
		"statistics": stats,
	})
}

func (a *API) serviceWhoAmI(w http.ResponseWriter, r *http.Request) {
	service, _ := ServiceFromContext(r.Context())
	writeJSON(w, http.StatusOK, service)
}
