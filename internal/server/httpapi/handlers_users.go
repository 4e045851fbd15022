package httpapi

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/dmitrijs2005/qaapi/internal/common"
	"github.com/dmitrijs2005/qaapi/internal/server/models"
	"github.com/dmitrijs2005/qaapi/internal/server/services"
)

func (a *API) listUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.UserFilter{}
	errs := validation.Errors{}

	if v := q.Get("skip"); v != "" {
		n, err := strconv.Atoi(v)
		switch {
		case err != nil:
			errs["skip"] = fmt.Errorf("must be an integer")
		case n < 0:
			errs["skip"] = fmt.Errorf("must be no less than 0")
		}
		filter.Skip = n
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		switch {
		case err != nil:
			errs["limit"] = fmt.Errorf("must be an integer")
		case n < 1 || n > services.MaxPageLimit:
			errs["limit"] = fmt.Errorf("must be between 1 and %d", services.MaxPageLimit)
		}
		filter.Limit = n
	} else {
		filter.Limit = services.DefaultPageLimit
	}
	isActive, err := optionalBool(q.Get("is_active"))
	if err != nil {
		errs["is_active"] = err
	}
	filter.IsActive = isActive

	if err := errs.Filter(); err != nil {
		a.writeError(w, r, common.NewValidationError(err))
		return
	}

	users, err := a.users.List(r.Context(), filter)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if users == nil {
		users = []*models.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

func (a *API) me(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	writeJSON(w, http.StatusOK, user)
}

func (a *API) countUsers(w http.ResponseWriter, r *http.Request) {
	isActive, err := optionalBool(r.URL.Query().Get("is_active"))
	if err != nil {
		a.writeError(w, r, common.NewValidationError(validation.Errors{"is_active": err}))
		return
	}

	n, err := a.users.Count(r.Context(), isActive)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": n, "is_active": isActive})
}

func (a *API) getUser(w http.ResponseWriter, r *http.Request) {
	id, ok := a.userID(w, r)
	if !ok {
		return
	}
	actor, _ := UserFromContext(r.Context())

	user, err := a.users.Get(r.Context(), actor, id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (a *API) updateMe(w http.ResponseWriter, r *http.Request) {
	var req services.ProfileUpdate
	if err := decodeJSON(w, r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	actor, _ := UserFromContext(r.Context())

	user, err := a.users.UpdateProfile(r.Context(), actor, req)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (a *API) updateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := a.userID(w, r)
	if !ok {
		return
	}
	var req services.AdminUpdate
	if err := decodeJSON(w, r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}

	user, err := a.users.UpdateUser(r.Context(), id, req)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (a *API) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := a.userID(w, r)
	if !ok {
		return
	}
	actor, _ := UserFromContext(r.Context())

	if err := a.users.Delete(r.Context(), actor, id); err != nil {
		a.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) deactivateUser(w http.ResponseWriter, r *http.Request) {
	a.setActive(w, r, false)
}

func (a *API) activateUser(w http.ResponseWriter, r *http.Request) {
	a.setActive(w, r, true)
}

func (a *API) setActive(w http.ResponseWriter, r *http.Request, active bool) {
	id, ok := a.userID(w, r)
	if !ok {
		return
	}
	actor, _ := UserFromContext(r.Context())

	user, err := a.users.SetActive(r.Context(), actor, id, active)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// userID parses the {id} path parameter, writing a 422 when it is invalid.
func (a *API) userID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		a.writeError(w, r, common.NewValidationError(validation.Errors{"id": fmt.Errorf("must be a positive integer")}))
		return 0, false
	}
	return id, true
}

func optionalBool(v string) (*bool, error) {
	if v == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, fmt.Errorf("must be a boolean")
	}
	return &b, nil
}
