package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/lms-access-api/internal/models"
	appErrors "github.com/noah-isme/lms-access-api/pkg/errors"
)

// TokenVerifier validates HS256 access tokens and decodes them into claims.
// It holds no per-request state and is safe for concurrent use.
type TokenVerifier struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewTokenVerifier builds a verifier. An empty issuer disables the issuer check.
func NewTokenVerifier(secret, issuer string) *TokenVerifier {
	return &TokenVerifier{secret: []byte(secret), issuer: issuer, now: time.Now}
}

// WithClock returns a copy of the verifier reading time from now.
func (v *TokenVerifier) WithClock(now func() time.Time) *TokenVerifier {
	clone := *v
	clone.now = now
	return &clone
}

// ExtractBearer pulls the token out of an "Bearer <token>" header value.
// An empty header yields ErrMissingCredential; any other shape is invalid.
func ExtractBearer(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", appErrors.ErrMissingCredential
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", appErrors.Clone(appErrors.ErrInvalidCredential, "invalid authorization header")
	}
	return strings.TrimSpace(parts[1]), nil
}

// Verify checks signature, shape and validity window of tokenString.
func (v *TokenVerifier) Verify(tokenString string) (*models.Claims, error) {
	if strings.TrimSpace(tokenString) == "" {
		return nil, appErrors.ErrMissingCredential
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	var payload models.JWTClaims
	_, err := jwt.ParseWithClaims(tokenString, &payload, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, appErrors.Wrap(err, appErrors.ErrExpiredCredential.Code, appErrors.ErrExpiredCredential.Status, appErrors.ErrExpiredCredential.Message)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidCredential.Code, appErrors.ErrInvalidCredential.Status, appErrors.ErrInvalidCredential.Message)
	}

	return claimsFromPayload(&payload)
}

func claimsFromPayload(payload *models.JWTClaims) (*models.Claims, error) {
	subject := payload.Subject
	if subject == "" {
		subject = payload.UserID
	}
	if subject == "" {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredential, "token has no subject")
	}
	if payload.UserID != "" && payload.Subject != "" && payload.UserID != payload.Subject {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredential, "token subject mismatch")
	}

	claims := &models.Claims{
		SubjectID:    subject,
		Email:        payload.Email,
		Roles:        models.NewRoleSet(payload.Roles...),
		RolesPresent: payload.Roles != nil,
	}
	if payload.IssuedAt != nil {
		claims.IssuedAt = payload.IssuedAt.Time.UTC()
	}
	if payload.ExpiresAt != nil {
		claims.ExpiresAt = payload.ExpiresAt.Time.UTC()
	}
	return claims, nil
}
