package httpadapter

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kirillkom/study-library/internal/core/domain"
)

// AuthCodeHeader carries the admin code on mutating requests.
const AuthCodeHeader = "Auth-Code"

var errAdminRequired = domain.WrapError(domain.ErrUnauthorized, "authorize", errors.New("admin code rejected"))

// requireAdmin runs the access gate before any side effect of next.
func (rt *Router) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		granted := rt.gate.Authorize(r.Header.Get(AuthCodeHeader))
		rt.metrics.RecordAuthCheck(granted)
		if !granted {
			writeErrorMessage(w, r, errAdminRequired, "unauthorized - admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type authRequest struct {
	AuthCode string `json:"authCode"`
}

type authResponse struct {
	Success bool `json:"success"`
	IsAdmin bool `json:"isAdmin"`
}

func (rt *Router) authenticate(w http.ResponseWriter, r *http.Request) {
	var req authRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4<<10)).Decode(&req); err != nil {
		writeErrorMessage(w, r, domain.WrapError(domain.ErrMissingFields, "authenticate", err), "invalid json")
		return
	}

	granted := rt.gate.Authorize(req.AuthCode)
	rt.metrics.RecordAuthCheck(granted)
	if !granted {
		writeErrorMessage(w, r, errAdminRequired, "invalid authentication code")
		return
	}
	writeJSON(w, http.StatusOK, authResponse{Success: true, IsAdmin: true})
}
