package services

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/reliefhub/relief-server/internal/access"
	"github.com/reliefhub/relief-server/internal/auth"
	"github.com/reliefhub/relief-server/internal/models"
	"github.com/reliefhub/relief-server/internal/store"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AuthService is the identity collaborator: accounts, roles and tokens
type AuthService struct {
	store    store.UserStore
	activity *ActivityLogService
	secret   string
	ttl      time.Duration
	logger   *zap.SugaredLogger
	Now      func() time.Time
}

// NewAuthService creates a new auth service signing tokens with secret
func NewAuthService(st store.UserStore, activity *ActivityLogService, secret string, ttl time.Duration, logger *zap.SugaredLogger) *AuthService {
	return &AuthService{store: st, activity: activity, secret: secret, ttl: ttl, logger: logger, Now: time.Now}
}

// CheckPassword enforces the account password policy: at least six
// characters with a digit, a lowercase and an uppercase letter.
func CheckPassword(pw string) error {
	var digit, lower, upper bool
	for _, r := range pw {
		switch {
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		}
	}
	var fields []FieldError
	if len([]rune(pw)) < 6 {
		fields = append(fields, FieldError{Field: "password", Message: "must be at least 6 characters"})
	}
	if !digit {
		fields = append(fields, FieldError{Field: "password", Message: "must contain a digit"})
	}
	if !lower {
		fields = append(fields, FieldError{Field: "password", Message: "must contain a lowercase letter"})
	}
	if !upper {
		fields = append(fields, FieldError{Field: "password", Message: "must contain an uppercase letter"})
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// Register creates a self-service account. Admin cannot be self-assigned;
// an empty role means RegularUser.
func (s *AuthService) Register(ctx context.Context, in models.RegisterInput) (*models.TokenResponse, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.FullName = strings.TrimSpace(in.FullName)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	role := models.RoleRegularUser
	if strings.TrimSpace(in.Role) != "" {
		r, err := models.ParseRole(in.Role)
		if err != nil || r == models.RoleAdmin {
			return nil, invalid("role", "must be Volunteer, Donor or RegularUser")
		}
		role = r
	}

	u, err := s.CreateUser(ctx, in.Email, in.Password, in.FullName, []models.Role{role})
	if err != nil {
		return nil, err
	}
	s.activity.Log(ctx, models.Actor{ID: u.ID, Roles: u.Roles}, models.EntityUser, u.ID, "registered", string(role))
	return s.tokenFor(u)
}

// CreateUser stores an account with the given roles after applying the
// password policy. It does not restrict which roles are granted.
func (s *AuthService) CreateUser(ctx context.Context, email, password, fullName string, roles []models.Role) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validateInput(struct {
		Email string `json:"email" validate:"required,email,max=256"`
	}{email}); err != nil {
		return nil, err
	}
	if err := CheckPassword(password); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		FullName:     strings.TrimSpace(fullName),
		Roles:        roles,
		CreatedAt:    s.Now().UTC(),
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, storeErr("create user", err)
	}
	s.logger.Infow("User created", "user_id", u.ID, "roles", u.Roles)
	return u, nil
}

// Login checks credentials and issues a token
func (s *AuthService) Login(ctx context.Context, in models.LoginInput) (*models.TokenResponse, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validateInput(in); err != nil {
		return nil, err
	}
	u, err := s.store.GetUserByEmail(ctx, in.Email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, storeErr("get user", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)) != nil {
		s.logger.Infow("Login failed", "user_id", u.ID)
		return nil, ErrInvalidCredentials
	}
	return s.tokenFor(u)
}

// Token issues a fresh token for an existing user id
func (s *AuthService) Token(ctx context.Context, userID string) (*models.TokenResponse, error) {
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, storeErr("get user", err)
	}
	return s.tokenFor(u)
}

func (s *AuthService) tokenFor(u *models.User) (*models.TokenResponse, error) {
	token, expires, err := auth.Issue(s.secret, u, s.ttl, s.Now())
	if err != nil {
		return nil, err
	}
	return &models.TokenResponse{
		Token:     token,
		ExpiresAt: expires,
		User:      *u,
		Role:      access.EffectiveRole(u.Roles),
	}, nil
}

// Me returns the actor's account as stored
func (s *AuthService) Me(ctx context.Context, actor models.Actor) (*models.User, error) {
	if actor.ID == "" {
		return nil, ErrForbidden
	}
	u, err := s.store.GetUser(ctx, actor.ID)
	if err != nil {
		return nil, storeErr("get user", err)
	}
	return u, nil
}

// GrantRole adds a role to a user. Admin only; granting a held role is a no-op.
func (s *AuthService) GrantRole(ctx context.Context, actor models.Actor, userID, role string) (*models.User, error) {
	if !access.IsAdmin(actor) {
		return nil, ErrForbidden
	}
	return s.grant(ctx, actor, userID, role)
}

func (s *AuthService) grant(ctx context.Context, actor models.Actor, userID, role string) (*models.User, error) {
	r, err := models.ParseRole(role)
	if err != nil {
		return nil, invalid("role", "must be Admin, Volunteer, Donor or RegularUser")
	}
	if err := s.store.AddUserRole(ctx, userID, r); err != nil {
		return nil, storeErr("add user role", err)
	}
	s.logger.Infow("Role granted", "user_id", userID, "role", r, "by", actor.ID)
	s.activity.Log(ctx, actor, models.EntityUser, userID, "role_granted", string(r))
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, storeErr("get user", err)
	}
	return u, nil
}

// EnsureAdmin makes sure an account for email exists and holds Admin.
// An existing account keeps its password.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := s.store.GetUserByEmail(ctx, email)
	switch {
	case errors.Is(err, store.ErrNotFound):
		u, err = s.CreateUser(ctx, email, password, "Administrator", []models.Role{models.RoleAdmin})
		if err != nil {
			return nil, err
		}
		s.logger.Infow("Admin account seeded", "email", email)
		return u, nil
	case err != nil:
		return nil, storeErr("get user", err)
	}
	for _, r := range u.Roles {
		if r == models.RoleAdmin {
			return u, nil
		}
	}
	system := models.Actor{ID: "system", Roles: []models.Role{models.RoleAdmin}}
	return s.grant(ctx, system, u.ID, string(models.RoleAdmin))
}
