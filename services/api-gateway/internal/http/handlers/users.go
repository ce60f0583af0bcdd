package handlers

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"smart-international-shipping/internal/account"
	"smart-international-shipping/internal/domain"
)

type Users struct {
	Accounts *account.Service
	Store    domain.UserRepository
	Log      zerolog.Logger

	CookieName string
	CookieTTL  time.Duration
}

type registerReq struct {
	Name          string      `json:"name"`
	Email         string      `json:"email"`
	Password      string      `json:"password"`
	Role          domain.Role `json:"role"`
	ProviderToken string      `json:"provider_token"`
}

type registerResp struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Token string `json:"token"`
}

// request picks the registration variant: a provider assertion means the
// user signed in through an external identity provider.
func (req registerReq) request() domain.RegistrationRequest {
	if req.ProviderToken != "" {
		return domain.FederatedIdentity{Name: req.Name, Email: req.Email, ProviderToken: req.ProviderToken, Role: req.Role}
	}
	return domain.LocalCredential{Name: req.Name, Email: req.Email, Password: req.Password, Role: req.Role}
}

func (h *Users) Register(w http.ResponseWriter, r *http.Request) {
	var req registerReq
	if !decode(w, r, &req) {
		return
	}
	res, err := h.Accounts.Register(r.Context(), req.request())
	if err != nil {
		WriteError(w, r, h.Log, err)
		return
	}
	if h.CookieName != "" {
		http.SetCookie(w, &http.Cookie{
			Name:     h.CookieName,
			Value:    res.Token,
			Path:     "/",
			MaxAge:   int(h.CookieTTL.Seconds()),
			HttpOnly: true,
			SameSite: http.SameSiteStrictMode,
		})
	}
	WriteJSON(w, http.StatusCreated, registerResp{ID: res.User.ID, Email: res.User.Email, Token: res.Token})
}

func (h *Users) Current(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	u, err := h.Store.GetUser(r.Context(), p.UserID)
	if err != nil {
		WriteError(w, r, h.Log, err)
		return
	}
	WriteJSON(w, http.StatusOK, u)
}
