package service

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lms-access-api/internal/models"
	appErrors "github.com/noah-isme/lms-access-api/pkg/errors"
)

const testSecret = "secret"

func signClaims(t *testing.T, secret string, claims jwt.Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func fixedClock(ts time.Time) func() time.Time {
	return func() time.Time { return ts }
}

func TestVerifyDecodesClaims(t *testing.T) {
	issued := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	token := signClaims(t, testSecret, &models.JWTClaims{
		Roles: []string{"student", "instructor"},
		Email: "u1@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u1",
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(time.Hour)),
		},
	})

	verifier := NewTokenVerifier(testSecret, "").WithClock(fixedClock(issued.Add(time.Minute)))
	claims, err := verifier.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.SubjectID)
	assert.Equal(t, models.RoleSet{models.RoleStudent, models.RoleInstructor}, claims.Roles)
	assert.True(t, claims.RolesPresent)
	assert.Equal(t, issued, claims.IssuedAt)
	assert.Equal(t, issued.Add(time.Hour), claims.ExpiresAt)
}

func TestVerifyExpiryBoundary(t *testing.T) {
	expiry := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	token := signClaims(t, testSecret, &models.JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u1",
			ExpiresAt: jwt.NewNumericDate(expiry),
		},
	})
	verifier := NewTokenVerifier(testSecret, "")

	for _, now := range []time.Time{expiry.Add(-time.Hour), expiry.Add(-time.Second)} {
		_, err := verifier.WithClock(fixedClock(now)).Verify(token)
		assert.NoError(t, err, "now=%s", now)
	}

	for _, now := range []time.Time{expiry, expiry.Add(time.Second), expiry.Add(24 * time.Hour)} {
		_, err := verifier.WithClock(fixedClock(now)).Verify(token)
		require.Error(t, err, "now=%s", now)
		assert.True(t, errors.Is(err, appErrors.ErrExpiredCredential), "now=%s err=%v", now, err)
	}
}

func TestVerifyWithoutRolesField(t *testing.T) {
	now := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	token := signClaims(t, testSecret, jwt.MapClaims{
		"sub": "legacy-user",
		"iat": now.Unix(),
		"exp": now.Add(time.Hour).Unix(),
	})

	claims, err := NewTokenVerifier(testSecret, "").WithClock(fixedClock(now)).Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "legacy-user", claims.SubjectID)
	assert.False(t, claims.RolesPresent)
	assert.Empty(t, claims.Roles)
}

func TestVerifyDropsUnknownRoles(t *testing.T) {
	now := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	token := signClaims(t, testSecret, jwt.MapClaims{
		"sub":   "u1",
		"roles": []string{"STUDENT", "wizard", "secretary"},
		"exp":   now.Add(time.Hour).Unix(),
	})

	claims, err := NewTokenVerifier(testSecret, "").WithClock(fixedClock(now)).Verify(token)
	require.NoError(t, err)
	assert.Equal(t, models.RoleSet{models.RoleSecretary}, claims.Roles)
}

func TestVerifyRejectsInvalidTokens(t *testing.T) {
	now := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	verifier := NewTokenVerifier(testSecret, "lms").WithClock(fixedClock(now))
	valid := jwt.RegisteredClaims{Subject: "u1", Issuer: "lms", ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour))}

	noSubject := valid
	noSubject.Subject = ""
	wrongIssuer := valid
	wrongIssuer.Issuer = "other"
	noExpiry := valid
	noExpiry.ExpiresAt = nil

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, valid).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := map[string]string{
		"garbage":       "not-a-token",
		"bad signature": signClaims(t, "other-secret", valid),
		"no subject":    signClaims(t, testSecret, noSubject),
		"wrong issuer":  signClaims(t, testSecret, wrongIssuer),
		"no expiry":     signClaims(t, testSecret, noExpiry),
		"alg none":      noneToken,
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := verifier.Verify(token)
			require.Error(t, err)
			assert.True(t, errors.Is(err, appErrors.ErrInvalidCredential), "err=%v", err)
		})
	}
}

func TestVerifyExpiredWithBadSignatureIsInvalid(t *testing.T) {
	now := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	token := signClaims(t, "other-secret", jwt.RegisteredClaims{Subject: "u1", ExpiresAt: jwt.NewNumericDate(now.Add(-time.Hour))})

	_, err := NewTokenVerifier(testSecret, "").WithClock(fixedClock(now)).Verify(token)
	assert.True(t, errors.Is(err, appErrors.ErrInvalidCredential))
}

func TestVerifyEmptyTokenIsMissing(t *testing.T) {
	_, err := NewTokenVerifier(testSecret, "").Verify("  ")
	assert.True(t, errors.Is(err, appErrors.ErrMissingCredential))
}

func TestExtractBearer(t *testing.T) {
	token, err := ExtractBearer("Bearer abc.def.ghi")
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", token)

	token, err = ExtractBearer("bearer xyz")
	require.NoError(t, err)
	assert.Equal(t, "xyz", token)

	_, err = ExtractBearer("")
	assert.True(t, errors.Is(err, appErrors.ErrMissingCredential))

	for _, header := range []string{"Basic abc", "Bearer", "Bearer   ", "abc"} {
		_, err = ExtractBearer(header)
		assert.True(t, errors.Is(err, appErrors.ErrInvalidCredential), "header %q", header)
	}
}
