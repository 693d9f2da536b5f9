package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/geocoder89/bloghub/internal/apperr"
	"github.com/geocoder89/bloghub/internal/auth"
	"github.com/geocoder89/bloghub/internal/domain/user"
	"github.com/geocoder89/bloghub/internal/security"
	"github.com/google/uuid"
)

type TokenManager interface {
	GenerateToken(userID, role string) (string, error)
	VerifyToken(tokenStr string) (*auth.Claims, error)
}

type AuthService struct {
	users  UserStore
	tokens TokenManager
	now    func() time.Time
}

func NewAuthService(users UserStore, tokens TokenManager) *AuthService {
	return &AuthService{users: users, tokens: tokens, now: time.Now}
}

// Session is what register and login hand back to the client.
type Session struct {
	User  user.User `json:"user"`
	Token string    `json:"token"`
}

func (s *AuthService) Register(ctx context.Context, req user.RegisterRequest) (Session, error) {
	ctx, span := tracer.Start(ctx, "auth.register")
	var err error
	defer func() { endSpan(span, err) }()

	name := strings.TrimSpace(req.Name)
	email := user.NormalizeEmail(req.Email)

	if name == "" || email == "" || req.Password == "" {
		err = apperr.Validation("Name, email and password are required")
		return Session{}, err
	}

	hash, herr := security.HashPassword(req.Password)
	if herr != nil {
		err = apperr.Store("Could not register user", herr)
		return Session{}, err
	}

	now := s.now().UTC()

	u, cerr := s.users.Create(ctx, user.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		Role:         user.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if cerr != nil {
		if errors.Is(cerr, user.ErrEmailTaken) {
			err = apperr.Conflict("User already exists")
			return Session{}, err
		}
		err = apperr.Store("Could not register user", cerr)
		return Session{}, err
	}

	return s.session(u)
}

func (s *AuthService) Login(ctx context.Context, req user.LoginRequest) (Session, error) {
	ctx, span := tracer.Start(ctx, "auth.login")
	var err error
	defer func() { endSpan(span, err) }()

	u, gerr := s.users.GetByEmail(ctx, user.NormalizeEmail(req.Email))
	if gerr != nil {
		if errors.Is(gerr, user.ErrNotFound) {
			err = apperr.Validation("Invalid credentials")
			return Session{}, err
		}
		err = apperr.Store("Could not log in", gerr)
		return Session{}, err
	}

	// same message for unknown email and wrong password
	if security.CheckPassword(u.PasswordHash, req.Password) != nil {
		err = apperr.Validation("Invalid credentials")
		return Session{}, err
	}

	return s.session(u)
}

func (s *AuthService) session(u user.User) (Session, error) {
	token, err := s.tokens.GenerateToken(u.ID, string(u.Role))
	if err != nil {
		return Session{}, apperr.Store("Could not issue token", err)
	}

	u.PasswordHash = ""
	return Session{User: u, Token: token}, nil
}

// ResolveToken verifies a bearer token and loads the live user behind it.
// A valid token for a user that no longer exists is rejected.
func (s *AuthService) ResolveToken(ctx context.Context, token string) (user.Identity, error) {
	if token == "" {
		return user.Identity{}, apperr.Unauthenticated("Not authorized, no token")
	}

	claims, err := s.tokens.VerifyToken(token)
	if err != nil {
		return user.Identity{}, apperr.Unauthenticated("Not authorized, token failed")
	}

	u, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.Identity{}, apperr.Unauthenticated("Not authorized, token failed")
		}
		return user.Identity{}, apperr.Store("Could not resolve user", err)
	}

	return u.Identity(), nil
}

// Me returns the caller's profile without the password hash.
func (s *AuthService) Me(ctx context.Context, actor user.Identity) (user.User, error) {
	if actor.IsZero() {
		return user.User{}, apperr.Unauthenticated("Not authorized")
	}

	u, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.User{}, apperr.NotFound("User not found")
		}
		return user.User{}, apperr.Store("Could not load user", err)
	}

	u.PasswordHash = ""
	return u, nil
}
