package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgauth "github.com/fishermenfirst/fleetquota-backend/pkg/auth"
	"github.com/fishermenfirst/fleetquota-backend/pkg/auth/session"
	"github.com/fishermenfirst/fleetquota-backend/pkg/config"
	"github.com/fishermenfirst/fleetquota-backend/pkg/db/models"
	"github.com/fishermenfirst/fleetquota-backend/pkg/enums"
	pkgerrors "github.com/fishermenfirst/fleetquota-backend/pkg/errors"
	"github.com/fishermenfirst/fleetquota-backend/pkg/security"
)

const tempPasswordLength = 14

// Login failures share one message so the response does not leak which
// part was wrong.
const invalidCredentialsMessage = "Invalid email or password."

type sessionManager interface {
	Generate(ctx context.Context, accessID string) (string, error)
	Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
}

// Service issues and rotates credentials and manages operator accounts.
type Service interface {
	Login(ctx context.Context, email, password string) (*TokenPair, error)
	Refresh(ctx context.Context, accessToken, refreshToken string) (*TokenPair, error)
	Logout(ctx context.Context, accessID string) error
	CreateUser(ctx context.Context, orgID uuid.UUID, input CreateUserInput) (*CreatedUser, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, current, updated string) error
	ListUsers(ctx context.Context, orgID uuid.UUID) ([]UserView, error)
}

// TokenPair is a freshly minted access/refresh credential set.
type TokenPair struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	ExpiresIn    int      `json:"expires_in"`
	User         UserView `json:"user"`
}

// UserView is the account shape returned to clients. No hash.
type UserView struct {
	ID    uuid.UUID  `json:"id"`
	OrgID uuid.UUID  `json:"org_id"`
	Email string     `json:"email"`
	Role  enums.Role `json:"role"`
	LLP   *string    `json:"llp,omitempty"`
}

// CreateUserInput registers an operator account. Vessel owners must carry
// the permit they are scoped to.
type CreateUserInput struct {
	Email string
	Role  enums.Role
	LLP   *string
}

// CreatedUser carries the one-time temporary password back to the admin.
type CreatedUser struct {
	User         UserView `json:"user"`
	TempPassword string   `json:"temp_password"`
}

type service struct {
	repo     Repository
	sessions sessionManager
	jwtCfg   config.JWTConfig
	pwCfg    config.PasswordConfig
}

func NewService(repo Repository, sessions sessionManager, jwtCfg config.JWTConfig, pwCfg config.PasswordConfig) Service {
	return &service{repo: repo, sessions: sessions, jwtCfg: jwtCfg, pwCfg: pwCfg}
}

func (s *service) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	user, err := s.repo.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load user")
	}

	ok, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil || !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	return s.issueTokens(ctx, user)
}

// Refresh rotates the session behind an access token. The access token may
// be expired; only its signature and jti matter here.
func (s *service) Refresh(ctx context.Context, accessToken, refreshToken string) (*TokenPair, error) {
	claims, err := pkgauth.ParseAccessTokenAllowExpired(s.jwtCfg, accessToken)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "Invalid access token.")
	}

	newAccessID, newRefreshToken, err := s.sessions.Rotate(ctx, claims.ID, refreshToken)
	if err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "Invalid refresh token.")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to rotate session")
	}

	// Reload so a role or permit change takes effect at rotation, not at
	// the next login.
	user, err := s.repo.FindUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "Account no longer exists.")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load user")
	}

	access, err := pkgauth.MintAccessToken(s.jwtCfg, time.Now(), pkgauth.AccessTokenPayload{
		UserID: user.ID,
		OrgID:  user.OrgID,
		Role:   user.Role,
		LLP:    user.LLP,
		JTI:    newAccessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to mint access token")
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: newRefreshToken,
		ExpiresIn:    s.jwtCfg.ExpirationMinutes * 60,
		User:         viewOf(user),
	}, nil
}

func (s *service) Logout(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "Access ID is required.")
	}
	if err := s.sessions.Revoke(ctx, accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to revoke session")
	}
	return nil
}

// CreateUser registers an account with a generated temporary password. The
// password is returned exactly once and never stored in the clear.
func (s *service) CreateUser(ctx context.Context, orgID uuid.UUID, input CreateUserInput) (*CreatedUser, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "A valid email is required.")
	}
	if !input.Role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Invalid role.")
	}
	if input.Role == enums.RoleVesselOwner && (input.LLP == nil || strings.TrimSpace(*input.LLP) == "") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Vessel owners must be assigned an LLP.")
	}

	if _, err := s.repo.FindUserByEmail(ctx, email); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "An account with this email already exists.")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to check existing account")
	}

	tempPassword, err := security.GenerateTempPassword(tempPasswordLength)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to generate temporary password")
	}
	hash, err := security.HashPassword(tempPassword, s.pwCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to hash password")
	}

	user := &models.User{
		OrgID:        orgID,
		Email:        email,
		PasswordHash: hash,
		Role:         input.Role,
		LLP:          input.LLP,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to create user")
	}

	return &CreatedUser{User: viewOf(user), TempPassword: tempPassword}, nil
}

func (s *service) ChangePassword(ctx context.Context, userID uuid.UUID, current, updated string) error {
	if len(updated) < 10 {
		return pkgerrors.New(pkgerrors.CodeValidation, "Password must be at least 10 characters.")
	}

	user, err := s.repo.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load user")
	}

	ok, err := security.VerifyPassword(current, user.PasswordHash)
	if err != nil || !ok {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "Current password is incorrect.")
	}

	hash, err := security.HashPassword(updated, s.pwCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to hash password")
	}
	if err := s.repo.UpdatePasswordHash(ctx, userID, hash); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to update password")
	}
	return nil
}

func (s *service) ListUsers(ctx context.Context, orgID uuid.UUID) ([]UserView, error) {
	users, err := s.repo.ListUsers(ctx, orgID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to list users")
	}
	views := make([]UserView, 0, len(users))
	for i := range users {
		views = append(views, viewOf(&users[i]))
	}
	return views, nil
}

func (s *service) issueTokens(ctx context.Context, user *models.User) (*TokenPair, error) {
	accessID := session.NewAccessID()
	access, err := pkgauth.MintAccessToken(s.jwtCfg, time.Now(), pkgauth.AccessTokenPayload{
		UserID: user.ID,
		OrgID:  user.OrgID,
		Role:   user.Role,
		LLP:    user.LLP,
		JTI:    accessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to mint access token")
	}

	refresh, err := s.sessions.Generate(ctx, accessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to create session")
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    s.jwtCfg.ExpirationMinutes * 60,
		User:         viewOf(user),
	}, nil
}

func viewOf(user *models.User) UserView {
	return UserView{
		ID:    user.ID,
		OrgID: user.OrgID,
		Email: user.Email,
		Role:  user.Role,
		LLP:   user.LLP,
	}
}
