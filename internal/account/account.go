// Package account registers users from local credentials or federated
// identities.
package account

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"smart-international-shipping/internal/domain"
)

const minPasswordLen = 8

// IdentityVerifier confirms a federated assertion and returns its email.
type IdentityVerifier interface {
	VerifyIdentity(ctx context.Context, token string) (string, error)
}

type TokenIssuer interface {
	Generate(u *domain.User) (string, error)
}

type Service struct {
	Users    domain.UserRepository
	Tokens   TokenIssuer
	Verifier IdentityVerifier
	Log      zerolog.Logger

	// HashCost defaults to bcrypt.DefaultCost.
	HashCost int
}

type Registered struct {
	User  *domain.User `json:"user"`
	Token string       `json:"token"`
}

func (s *Service) Register(ctx context.Context, req domain.RegistrationRequest) (*Registered, error) {
	var u *domain.User
	var err error
	switch r := req.(type) {
	case domain.LocalCredential:
		u, err = s.local(r)
	case domain.FederatedIdentity:
		u, err = s.federated(ctx, r)
	default:
		return nil, fmt.Errorf("unsupported registration request %T", req)
	}
	if err != nil {
		return nil, err
	}

	if err := s.Users.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	s.Log.Info().Str("user_id", u.ID).Str("role", string(u.Role)).Bool("federated", u.Federated).Msg("user registered")

	tok, err := s.Tokens.Generate(u)
	if err != nil {
		return nil, err
	}
	return &Registered{User: u, Token: tok}, nil
}

func (s *Service) local(r domain.LocalCredential) (*domain.User, error) {
	v := &domain.ValidationError{}
	name, email, role := checkProfile(v, r.Name, r.Email, r.Role)
	if len(r.Password) < minPasswordLen {
		v.Add("password", fmt.Sprintf("must be at least %d characters", minPasswordLen))
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	cost := s.HashCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(r.Password), cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return &domain.User{Name: name, Email: email, Role: role, PasswordHash: string(hash)}, nil
}

func (s *Service) federated(ctx context.Context, r domain.FederatedIdentity) (*domain.User, error) {
	v := &domain.ValidationError{}
	name, email, role := checkProfile(v, r.Name, r.Email, r.Role)
	if strings.TrimSpace(r.ProviderToken) == "" {
		v.Add("provider_token", "is required")
	}
	if s.Verifier == nil {
		v.Add("provider_token", "federated registration is not enabled")
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	vouched, err := s.Verifier.VerifyIdentity(ctx, r.ProviderToken)
	if err != nil {
		s.Log.Warn().Err(err).Msg("federated assertion rejected")
		return nil, domain.ErrAccessDenied("identity provider assertion rejected")
	}
	if !strings.EqualFold(vouched, email) {
		return nil, domain.ErrAccessDenied("identity provider vouched for a different email")
	}
	return &domain.User{Name: name, Email: email, Role: role, Federated: true}, nil
}

// checkProfile validates the fields common to every registration and returns
// them normalized. An empty role registers a joiner.
func checkProfile(v *domain.ValidationError, name, email string, role domain.Role) (string, string, domain.Role) {
	name = strings.TrimSpace(name)
	if name == "" {
		v.Add("name", "is required")
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		v.Add("email", "is required")
	} else if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		v.Add("email", "is not a valid address")
	}
	if role == "" {
		role = domain.RoleJoiner
	}
	if !role.Valid() {
		v.Add("role", "must be one of joiner, manager, shipper")
	}
	return name, email, role
}
