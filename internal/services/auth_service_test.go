package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sexual-Harresment-Committee/ComplaintWebSite/internal/auth"
	"github.com/Sexual-Harresment-Committee/ComplaintWebSite/internal/models"
	pkgauth "github.com/Sexual-Harresment-Committee/ComplaintWebSite/pkg/auth"
	"github.com/pquerna/otp/totp"
)

func testTokenManager() *auth.TokenManager {
	return auth.NewTokenManager("test-secret-at-least-32-characters!!", 15*time.Minute, 7*24*time.Hour)
}

func testTOTPManager(t *testing.T) *auth.TOTPManager {
	t.Helper()
	tm, err := auth.NewTOTPManager([]byte("0123456789abcdef0123456789abcdef"), "ComplaintPortal")
	require.NoError(t, err)
	return tm
}

func staffUser(t *testing.T, password string) *models.User {
	t.Helper()
	hash, err := pkgauth.HashPassword(password)
	require.NoError(t, err)
	return &models.User{
		ID:           "user-1",
		Email:        "staff@example.edu",
		PasswordHash: hash,
		Name:         "Staff",
		Role:         models.RoleCommittee,
		Status:       "active",
	}
}

func newAuthService(t *testing.T, repo *MockUserRepository, revoke *MockTokenRevocationRepository) *AuthService {
	t.Helper()
	if repo == nil {
		repo = &MockUserRepository{}
	}
	if revoke == nil {
		revoke = &MockTokenRevocationRepository{}
	}
	return NewAuthService(repo, testTokenManager(), testTOTPManager(t), revoke,
		testAuditService(&MockAuditLogRepository{}), testLogger())
}

func TestAuthService_Login(t *testing.T) {
	t.Run("valid credentials return a token pair", func(t *testing.T) {
		user := staffUser(t, "Password1")
		repo := &MockUserRepository{
			GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
				return user, nil
			},
		}
		svc := newAuthService(t, repo, nil)

		resp, err := svc.Login(context.Background(), "Staff@Example.edu ", "Password1", "", "203.0.113.9")
		require.NoError(t, err)

		assert.NotEmpty(t, resp.AccessToken)
		assert.NotEmpty(t, resp.RefreshToken)
		assert.Equal(t, user.ID, resp.User.ID)
	})

	t.Run("unknown email is unauthorized", func(t *testing.T) {
		svc := newAuthService(t, nil, nil)

		_, err := svc.Login(context.Background(), "nobody@example.edu", "Password1", "", "")
		assert.ErrorIs(t, err, models.ErrUnauthorized)
	})

	t.Run("wrong password is unauthorized", func(t *testing.T) {
		user := staffUser(t, "Password1")
		repo := &MockUserRepository{
			GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
				return user, nil
			},
		}
		svc := newAuthService(t, repo, nil)

		_, err := svc.Login(context.Background(), user.Email, "WrongPass1", "", "")
		assert.ErrorIs(t, err, models.ErrUnauthorized)
	})

	t.Run("disabled account blocked", func(t *testing.T) {
		user := staffUser(t, "Password1")
		user.Status = "disabled"
		repo := &MockUserRepository{
			GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
				return user, nil
			},
		}
		svc := newAuthService(t, repo, nil)

		_, err := svc.Login(context.Background(), user.Email, "Password1", "", "")
		assert.ErrorIs(t, err, models.ErrAccountDisabled)
	})

	t.Run("mfa enabled: password alone prompts for code", func(t *testing.T) {
		user := staffUser(t, "Password1")
		user.MFAEnabled = true
		repo := &MockUserRepository{
			GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
				return user, nil
			},
		}
		svc := newAuthService(t, repo, nil)

		_, err := svc.Login(context.Background(), user.Email, "Password1", "", "")
		assert.ErrorIs(t, err, models.ErrMFARequired)
	})

	t.Run("mfa enabled: valid code completes login", func(t *testing.T) {
		totpMgr := testTOTPManager(t)
		secret := []byte("JBSWY3DPEHPK3PXPJBSWY3DPEHPK3PXP")
		enc, nonce, err := totpMgr.EncryptSecret(secret)
		require.NoError(t, err)

		user := staffUser(t, "Password1")
		user.MFAEnabled = true
		user.TOTPSecretEnc = enc
		user.TOTPSecretNonce = nonce

		repo := &MockUserRepository{
			GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
				return user, nil
			},
		}
		svc := NewAuthService(repo, testTokenManager(), totpMgr, &MockTokenRevocationRepository{},
			testAuditService(&MockAuditLogRepository{}), testLogger())

		code, err := totp.GenerateCode(string(secret), time.Now())
		require.NoError(t, err)

		resp, err := svc.Login(context.Background(), user.Email, "Password1", code, "")
		require.NoError(t, err)
		assert.NotEmpty(t, resp.AccessToken)

		_, err = svc.Login(context.Background(), user.Email, "Password1", "000000", "")
		assert.ErrorIs(t, err, models.ErrInvalidMFACode)
	})
}

func TestAuthService_RefreshToken(t *testing.T) {
	tm := testTokenManager()

	newService := func(repo *MockUserRepository, revoke *MockTokenRevocationRepository) *AuthService {
		if revoke == nil {
			revoke = &MockTokenRevocationRepository{}
		}
		return NewAuthService(repo, tm, testTOTPManager(t), revoke,
			testAuditService(&MockAuditLogRepository{}), testLogger())
	}

	t.Run("valid refresh token yields a new pair", func(t *testing.T) {
		user := staffUser(t, "Password1")
		repo := &MockUserRepository{
			GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
				return user, nil
			},
		}
		svc := newService(repo, nil)

		refresh, err := tm.GenerateRefreshToken(user.ID, user.Email)
		require.NoError(t, err)

		resp, err := svc.RefreshToken(context.Background(), refresh)
		require.NoError(t, err)
		assert.NotEmpty(t, resp.AccessToken)
		assert.NotEqual(t, refresh, resp.RefreshToken)
	})

	t.Run("access token cannot be used as refresh token", func(t *testing.T) {
		svc := newService(&MockUserRepository{}, nil)

		access, err := tm.GenerateAccessToken("user-1", "staff@example.edu")
		require.NoError(t, err)

		_, err = svc.RefreshToken(context.Background(), access)
		assert.ErrorIs(t, err, models.ErrUnauthorized)
	})

	t.Run("revoked refresh token rejected", func(t *testing.T) {
		revoke := &MockTokenRevocationRepository{
			IsTokenRevokedFunc: func(ctx context.Context, jti string) (bool, error) {
				return true, nil
			},
		}
		svc := newService(&MockUserRepository{}, revoke)

		refresh, err := tm.GenerateRefreshToken("user-1", "staff@example.edu")
		require.NoError(t, err)

		_, err = svc.RefreshToken(context.Background(), refresh)
		assert.ErrorIs(t, err, models.ErrUnauthorized)
	})

	t.Run("disabled account cannot refresh", func(t *testing.T) {
		user := staffUser(t, "Password1")
		user.Status = "disabled"
		repo := &MockUserRepository{
			GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
				return user, nil
			},
		}
		svc := newService(repo, nil)

		refresh, err := tm.GenerateRefreshToken(user.ID, user.Email)
		require.NoError(t, err)

		_, err = svc.RefreshToken(context.Background(), refresh)
		assert.ErrorIs(t, err, models.ErrUnauthorized)
	})
}

func TestAuthService_Logout(t *testing.T) {
	tm := testTokenManager()

	t.Run("logout revokes the token by JTI", func(t *testing.T) {
		var revokedJTI string
		revoke := &MockTokenRevocationRepository{
			RevokeTokenFunc: func(ctx context.Context, jti, userID, tokenType string, expiresAt time.Time, reason string) error {
				revokedJTI = jti
				return nil
			},
		}
		svc := NewAuthService(&MockUserRepository{}, tm, testTOTPManager(t), revoke,
			testAuditService(&MockAuditLogRepository{}), testLogger())

		access, err := tm.GenerateAccessToken("user-1", "staff@example.edu")
		require.NoError(t, err)

		require.NoError(t, svc.Logout(context.Background(), access))
		assert.NotEmpty(t, revokedJTI)
	})

	t.Run("logout all covers the refresh TTL", func(t *testing.T) {
		var gotTTL time.Duration
		revoke := &MockTokenRevocationRepository{
			RevokeAllUserTokensFunc: func(ctx context.Context, userID, reason string, ttl time.Duration) error {
				gotTTL = ttl
				return nil
			},
		}
		svc := NewAuthService(&MockUserRepository{}, tm, testTOTPManager(t), revoke,
			testAuditService(&MockAuditLogRepository{}), testLogger())

		require.NoError(t, svc.LogoutAll(context.Background(), "user-1"))
		assert.Equal(t, 7*24*time.Hour, gotTTL)
	})
}
