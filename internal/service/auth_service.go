package service

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/aidtrace/internal/auth"
	"github.com/spec-kit/aidtrace/internal/config"
	"github.com/spec-kit/aidtrace/internal/domain"
	"github.com/spec-kit/aidtrace/internal/repository"
	apperrors "github.com/spec-kit/aidtrace/pkg/util"
)

// AuthService coordinates registration, login and token refresh.
type AuthService struct {
	users      repository.UserRepository
	orgs       repository.RecordRepository
	audit      repository.RecordRepository
	tokenMgr   *auth.TokenManager
	bcryptCost int
	logger     *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.DevServerConfig, repos *repository.Repositories, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:      repos.Users,
		orgs:       repos.Organisations,
		audit:      repos.Audit,
		tokenMgr:   auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTTL(), cfg.RefreshTTL()),
		bcryptCost: cfg.BcryptCost,
		logger:     logger,
	}
}

// TokenManager exposes the JWT manager for middleware wiring.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

// Register creates an account. Admin accounts are approved immediately,
// everyone else waits for an admin. Organisation accounts without an
// organisation get one named after the username.
func (s *AuthService) Register(ctx context.Context, reg domain.Registration) (domain.User, error) {
	errs := fieldErrors{}
	raw := domain.Record{
		"username":         reg.Username,
		"email":            reg.Email,
		"password":         reg.Password,
		"password_confirm": reg.PasswordConfirm,
		"role":             string(reg.Role),
	}
	errs.require(raw, "username", "email", "password", "password_confirm", "role")
	if reg.Role != "" && !reg.Role.Valid() {
		errs.add("role", strconv.Quote(string(reg.Role))+" is not a valid choice.")
	}
	if len(reg.Password) > auth.MaxPasswordBytes {
		errs.add("password", "Ensure this field has no more than 72 characters.")
	}
	if reg.Organisation != nil {
		if _, err := s.orgs.Get(ctx, *reg.Organisation); err != nil {
			if !errors.Is(err, apperrors.ErrNotFound) {
				return domain.User{}, err
			}
			errs.add("organisation", "Invalid pk \""+strconv.FormatInt(*reg.Organisation, 10)+"\" - object does not exist.")
		}
	}
	if err := errs.err(); err != nil {
		return domain.User{}, err
	}
	if reg.Password != reg.PasswordConfirm {
		return domain.User{}, apperrors.NewFieldErrors(map[string][]string{"non_field_errors": {"Passwords don't match"}})
	}

	hash, err := auth.HashPassword(reg.Password, s.bcryptCost)
	if err != nil {
		return domain.User{}, apperrors.NewInternalError(err)
	}

	account := &repository.Account{
		User: domain.User{
			Username:     reg.Username,
			Email:        reg.Email,
			FirstName:    reg.FirstName,
			LastName:     reg.LastName,
			Role:         reg.Role,
			Organisation: reg.Organisation,
			Phone:        reg.Phone,
			IsApproved:   reg.Role == domain.RoleAdmin,
		},
		PasswordHash: hash,
	}
	if _, err := s.users.GetByUsername(ctx, reg.Username); err == nil {
		return domain.User{}, repository.ErrUsernameTaken
	}

	if reg.Role == domain.RoleOrganisation && reg.Organisation == nil {
		org, err := s.orgs.Create(ctx, domain.Record{
			"name":                reg.Username,
			"type":                "ngo",
			"registration_status": "approved",
			"contact_email":       reg.Email,
			"description":         "Organisation for " + reg.Username,
		})
		if err != nil {
			return domain.User{}, err
		}
		id := domain.IntField(org, "id")
		account.Organisation = &id
	}

	if err := s.users.Create(ctx, account); err != nil {
		return domain.User{}, err
	}
	s.logger.Info("account registered", zap.String("username", account.Username), zap.String("role", string(account.Role)))
	s.recordAudit(ctx, account.ID, "user.registered", account.Username)
	return s.present(ctx, account), nil
}

// Login checks credentials and issues a token pair.
func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.LoginResponse, error) {
	account, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewErrorReply(http.StatusUnauthorized, "Invalid credentials")
		}
		return nil, err
	}
	if !auth.PasswordMatches(account.PasswordHash, password) {
		return nil, apperrors.NewErrorReply(http.StatusUnauthorized, "Invalid credentials")
	}
	if !account.IsApproved && account.Role != domain.RoleAdmin {
		return nil, apperrors.NewErrorReply(http.StatusForbidden, "Account pending admin approval")
	}

	pair, err := s.tokenMgr.IssuePair(account.User)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &domain.LoginResponse{
		Access:  pair.Access,
		Refresh: pair.Refresh,
		User:    s.present(ctx, account),
	}, nil
}

// Refresh exchanges a refresh token for a new access token.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", apperrors.NewFieldErrors(map[string][]string{"refresh": {msgRequired}})
	}
	access, claims, err := s.tokenMgr.Refresh(refreshToken)
	if err != nil {
		return "", apperrors.NewDetailError(http.StatusUnauthorized, "token_not_valid", "Token is invalid or expired")
	}
	if _, err := s.users.GetByID(ctx, claims.UserID); err != nil {
		return "", apperrors.NewDetailError(http.StatusUnauthorized, "user_not_found", "User not found")
	}
	return access, nil
}

// UserByID resolves a token subject for the auth middleware.
func (s *AuthService) UserByID(ctx context.Context, id int64) (domain.User, error) {
	account, err := s.users.GetByID(ctx, id)
	if err != nil {
		return domain.User{}, err
	}
	return s.present(ctx, account), nil
}

// SetApproval approves or suspends an account.
func (s *AuthService) SetApproval(ctx context.Context, actor domain.User, id int64, approved bool) (domain.User, error) {
	account, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return domain.User{}, errNotFound()
		}
		return domain.User{}, err
	}
	account.IsApproved = approved
	if err := s.users.Update(ctx, account); err != nil {
		return domain.User{}, err
	}
	action := "user.approved"
	if !approved {
		action = "user.suspended"
	}
	s.recordAudit(ctx, actor.ID, action, account.Username)
	return s.present(ctx, account), nil
}

// SeedAdmin creates the admin account if no account with that username exists.
func (s *AuthService) SeedAdmin(ctx context.Context, username, password string) error {
	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return nil
	}
	_, err := s.Register(ctx, domain.Registration{
		Username:        username,
		Email:           username + "@aidtrace.local",
		Password:        password,
		PasswordConfirm: password,
		Role:            domain.RoleAdmin,
	})
	return err
}

// present fills the organisation name the way the user serializer does.
func (s *AuthService) present(ctx context.Context, account *repository.Account) domain.User {
	u := account.User
	if u.Organisation != nil {
		if org, err := s.orgs.Get(ctx, *u.Organisation); err == nil {
			u.OrganisationName = domain.StringField(org, "name")
		}
	}
	return u
}

func (s *AuthService) recordAudit(ctx context.Context, userID int64, action, details string) {
	writeAudit(ctx, s.audit, s.logger, userID, action, details)
}

// writeAudit appends an audit entry. Failures are logged, never returned.
func writeAudit(ctx context.Context, repo repository.RecordRepository, logger *zap.Logger, userID int64, action, details string) {
	if _, err := repo.Create(ctx, domain.Record{
		"user":       userID,
		"action":     action,
		"details":    details,
		"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		"ip_address": nil,
	}); err != nil {
		logger.Warn("audit write failed", zap.Error(err))
	}
}

func errNotFound() error {
	return apperrors.NewDetailError(http.StatusNotFound, "not_found", "Not found.")
}
