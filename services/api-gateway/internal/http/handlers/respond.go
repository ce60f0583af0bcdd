package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"smart-international-shipping/internal/domain"
)

const maxBodyBytes = 1 << 20

type messageResp struct {
	Message string `json:"message"`
}

type validationResp struct {
	Errors []domain.ValidationIssue `json:"errors"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteMessage(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, messageResp{Message: msg})
}

// StatusFromError maps the domain error taxonomy onto HTTP status codes.
func StatusFromError(err error) int {
	var (
		verr *domain.ValidationError
		nf   *domain.NotFoundError
		ad   *domain.AccessDeniedError
		cf   *domain.ConflictError
	)
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.As(err, &nf):
		return http.StatusNotFound
	case errors.As(err, &ad):
		return http.StatusForbidden
	case errors.As(err, &cf):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// WriteError renders err. Unexpected errors are logged and hidden from the
// client.
func WriteError(w http.ResponseWriter, r *http.Request, log zerolog.Logger, err error) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		WriteJSON(w, http.StatusBadRequest, validationResp{Errors: verr.Issues})
		return
	}
	status := StatusFromError(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("path", r.URL.Path).
			Msg("request failed")
		WriteMessage(w, status, "Server Error!")
		return
	}
	WriteMessage(w, status, err.Error())
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		WriteMessage(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// principal reads the authenticated caller. Handlers are mounted behind the
// auth middleware, so a miss means the route was wired without it.
func principal(w http.ResponseWriter, r *http.Request) (domain.Principal, bool) {
	p, ok := domain.PrincipalFromContext(r.Context())
	if !ok || p.UserID == "" {
		WriteMessage(w, http.StatusUnauthorized, "No authentication")
		return domain.Principal{}, false
	}
	return p, true
}

func Health(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
