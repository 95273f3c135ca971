package auth

import (
	"context"
	"strings"
	"testing"

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

var testJWTConfig = config.JWTConfig{
	Secret:                 "test-secret-test-secret-test-secret",
	Issuer:                 "fleetquota-test",
	ExpirationMinutes:      15,
	RefreshTokenTTLMinutes: 60,
}

var testPasswordConfig = config.PasswordConfig{
	ArgonMemoryKB:    8 * 1024,
	ArgonTime:        1,
	ArgonParallelism: 1,
	ArgonSaltLen:     16,
	ArgonKeyLen:      32,
}

type fakeRepo struct {
	byEmail map[string]*models.User
	byID    map[uuid.UUID]*models.User
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{byEmail: map[string]*models.User{}, byID: map[uuid.UUID]*models.User{}}
}

func (f *fakeRepo) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	user, ok := f.byEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (f *fakeRepo) FindUserByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	user, ok := f.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (f *fakeRepo) CreateUser(_ context.Context, user *models.User) error {
	user.ID = uuid.New()
	f.byEmail[user.Email] = user
	f.byID[user.ID] = user
	return nil
}

func (f *fakeRepo) UpdatePasswordHash(_ context.Context, id uuid.UUID, hash string) error {
	user, ok := f.byID[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	user.PasswordHash = hash
	return nil
}

func (f *fakeRepo) ListUsers(_ context.Context, orgID uuid.UUID) ([]models.User, error) {
	var out []models.User
	for _, user := range f.byID {
		if user.OrgID == orgID {
			out = append(out, *user)
		}
	}
	return out, nil
}

type fakeSessions struct {
	tokens map[string]string
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{tokens: map[string]string{}}
}

func (f *fakeSessions) Generate(_ context.Context, accessID string) (string, error) {
	token := "refresh-" + accessID
	f.tokens[accessID] = token
	return token, nil
}

func (f *fakeSessions) Rotate(_ context.Context, oldAccessID, provided string) (string, string, error) {
	stored, ok := f.tokens[oldAccessID]
	if !ok || stored != provided {
		return "", "", session.ErrInvalidRefreshToken
	}
	delete(f.tokens, oldAccessID)
	newAccessID := session.NewAccessID()
	token := "refresh-" + newAccessID
	f.tokens[newAccessID] = token
	return newAccessID, token, nil
}

func (f *fakeSessions) Revoke(_ context.Context, accessID string) error {
	delete(f.tokens, accessID)
	return nil
}

func seedUser(t *testing.T, repo *fakeRepo, orgID uuid.UUID, email, password string, role enums.Role) *models.User {
	t.Helper()
	hash, err := security.HashPassword(password, testPasswordConfig)
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	user := &models.User{OrgID: orgID, Email: email, PasswordHash: hash, Role: role}
	if err := repo.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	return user
}

func TestLoginIssuesTokenPair(t *testing.T) {
	ctx := context.Background()
	orgID := uuid.New()
	repo := newFakeRepo()
	sessions := newFakeSessions()
	user := seedUser(t, repo, orgID, "skipper@fleet.test", "correct horse battery", enums.RoleManager)
	svc := NewService(repo, sessions, testJWTConfig, testPasswordConfig)

	pair, err := svc.Login(ctx, "Skipper@Fleet.Test", "correct horse battery")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("expected both tokens")
	}
	if pair.ExpiresIn != 15*60 {
		t.Fatalf("expected 900s expiry, got %d", pair.ExpiresIn)
	}
	if pair.User.ID != user.ID || pair.User.Role != enums.RoleManager {
		t.Fatalf("unexpected user view %+v", pair.User)
	}

	claims, err := pkgauth.ParseAccessToken(testJWTConfig, pair.AccessToken)
	if err != nil {
		t.Fatalf("minted token does not parse: %v", err)
	}
	if claims.UserID != user.ID || claims.OrgID != orgID {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if _, ok := sessions.tokens[claims.ID]; !ok {
		t.Fatal("expected session stored under jti")
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	seedUser(t, repo, uuid.New(), "skipper@fleet.test", "correct horse battery", enums.RoleManager)
	svc := NewService(repo, newFakeSessions(), testJWTConfig, testPasswordConfig)

	cases := []struct {
		name            string
		email, password string
	}{
		{"wrong password", "skipper@fleet.test", "wrong"},
		{"unknown email", "stranger@fleet.test", "correct horse battery"},
		{"empty password", "skipper@fleet.test", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Login(ctx, tc.email, tc.password)
			typed := pkgerrors.As(err)
			if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
				t.Fatalf("expected unauthorized, got %v", err)
			}
			if typed.Message() != invalidCredentialsMessage {
				t.Fatalf("expected uniform message, got %q", typed.Message())
			}
		})
	}
}

func TestRefreshRotatesSession(t *testing.T) {
	ctx := context.Background()
	orgID := uuid.New()
	repo := newFakeRepo()
	sessions := newFakeSessions()
	seedUser(t, repo, orgID, "skipper@fleet.test", "correct horse battery", enums.RoleVesselOwner)
	svc := NewService(repo, sessions, testJWTConfig, testPasswordConfig)

	pair, err := svc.Login(ctx, "skipper@fleet.test", "correct horse battery")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	rotated, err := svc.Refresh(ctx, pair.AccessToken, pair.RefreshToken)
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if rotated.AccessToken == pair.AccessToken {
		t.Fatal("expected a new access token")
	}
	if rotated.RefreshToken == pair.RefreshToken {
		t.Fatal("expected a new refresh token")
	}

	// The old pair is dead after rotation.
	_, err = svc.Refresh(ctx, pair.AccessToken, pair.RefreshToken)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized replaying old pair, got %v", err)
	}
}

func TestRefreshRejectsForgedToken(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newFakeRepo(), newFakeSessions(), testJWTConfig, testPasswordConfig)

	_, err := svc.Refresh(ctx, "not-a-jwt", "whatever")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	sessions := newFakeSessions()
	seedUser(t, repo, uuid.New(), "skipper@fleet.test", "correct horse battery", enums.RoleManager)
	svc := NewService(repo, sessions, testJWTConfig, testPasswordConfig)

	pair, err := svc.Login(ctx, "skipper@fleet.test", "correct horse battery")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	claims, err := pkgauth.ParseAccessToken(testJWTConfig, pair.AccessToken)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	if err := svc.Logout(ctx, claims.ID); err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	if _, ok := sessions.tokens[claims.ID]; ok {
		t.Fatal("expected session removed")
	}
}

func TestCreateUserGeneratesTempPassword(t *testing.T) {
	ctx := context.Background()
	orgID := uuid.New()
	repo := newFakeRepo()
	svc := NewService(repo, newFakeSessions(), testJWTConfig, testPasswordConfig)

	llp := "LLP 100"
	created, err := svc.CreateUser(ctx, orgID, CreateUserInput{
		Email: "Owner@Fleet.Test",
		Role:  enums.RoleVesselOwner,
		LLP:   &llp,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if created.TempPassword == "" {
		t.Fatal("expected temp password returned")
	}
	if created.User.Email != "owner@fleet.test" {
		t.Fatalf("expected normalized email, got %q", created.User.Email)
	}

	// The temp password must actually work.
	if _, err := svc.Login(ctx, "owner@fleet.test", created.TempPassword); err != nil {
		t.Fatalf("login with temp password failed: %v", err)
	}
}

func TestCreateUserValidation(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	svc := NewService(repo, newFakeSessions(), testJWTConfig, testPasswordConfig)
	orgID := uuid.New()

	_, err := svc.CreateUser(ctx, orgID, CreateUserInput{Email: "bad-email", Role: enums.RoleManager})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for email, got %v", err)
	}

	_, err = svc.CreateUser(ctx, orgID, CreateUserInput{Email: "x@y.test", Role: enums.Role("captain")})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for role, got %v", err)
	}

	_, err = svc.CreateUser(ctx, orgID, CreateUserInput{Email: "x@y.test", Role: enums.RoleVesselOwner})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for missing LLP, got %v", err)
	}

	if _, err := svc.CreateUser(ctx, orgID, CreateUserInput{Email: "x@y.test", Role: enums.RoleManager}); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	_, err = svc.CreateUser(ctx, orgID, CreateUserInput{Email: "x@y.test", Role: enums.RoleManager})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict for duplicate email, got %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	user := seedUser(t, repo, uuid.New(), "skipper@fleet.test", "old password here", enums.RoleManager)
	svc := NewService(repo, newFakeSessions(), testJWTConfig, testPasswordConfig)

	err := svc.ChangePassword(ctx, user.ID, "wrong", "new password here")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized for wrong current, got %v", err)
	}

	err = svc.ChangePassword(ctx, user.ID, "old password here", "short")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation for short password, got %v", err)
	}

	if err := svc.ChangePassword(ctx, user.ID, "old password here", "new password here"); err != nil {
		t.Fatalf("change failed: %v", err)
	}
	if _, err := svc.Login(ctx, "skipper@fleet.test", "new password here"); err != nil {
		t.Fatalf("login with new password failed: %v", err)
	}
	if _, err := svc.Login(ctx, "skipper@fleet.test", "old password here"); err == nil {
		t.Fatal("old password must stop working")
	}
}
