package httpapi

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/dmitrijs2005/qaapi/internal/common"
	"github.com/dmitrijs2005/qaapi/internal/server/services"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r loginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (a *API) register(w http.ResponseWriter, r *http.Request) {
	var req services.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}

	user, err := a.auth.Register(r.Context(), req)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// login accepts an OAuth2 password form or a JSON body.
func (a *API) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest

	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "application/json" {
		if err := decodeJSON(w, r, &req); err != nil {
			a.writeError(w, r, err)
			return
		}
	} else {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		if err := r.ParseForm(); err != nil {
			a.writeError(w, r, common.NewValidationError(err))
			return
		}
		req.Username = r.PostForm.Get("username")
		req.Password = r.PostForm.Get("password")
	}
	if err := req.Validate(); err != nil {
		a.writeError(w, r, common.NewValidationError(err))
		return
	}

	pair, err := a.auth.Login(r.Context(), strings.TrimSpace(req.Username), req.Password)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			err = fmt.Errorf("%w: incorrect username or password", common.ErrorUnauthorized)
		}
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

// refresh takes the refresh token from a JSON body or the refresh_token
// query parameter.
func (a *API) refresh(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("refresh_token")
	if token == "" && r.ContentLength != 0 {
		var req refreshRequest
		if err := decodeJSON(w, r, &req); err != nil {
			a.writeError(w, r, err)
			return
		}
		token = req.RefreshToken
	}
	if token == "" {
		a.writeError(w, r, common.NewValidationError(validation.Errors{"refresh_token": errors.New("cannot be blank")}))
		return
	}

	pair, err := a.auth.Refresh(r.Context(), token)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			err = fmt.Errorf("%w: invalid or expired refresh token", common.ErrorUnauthorized)
		}
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

// logout is informational: tokens are stateless and dropped by the client.
func (a *API) logout(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Successfully logged out"})
}

func (a *API) verifyToken(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"valid":    true,
		"message":  "Token is valid",
		"username": user.Username,
	})
}
