package services

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/api/idtoken"
)

var ErrGoogleNotConfigured = errors.New("google sign-in is not configured")

// GoogleIdentity is the subset of a verified Google ID token the linker uses.
type GoogleIdentity struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
}

// IdentityVerifier verifies an externally issued identity token.
type IdentityVerifier interface {
	Verify(ctx context.Context, rawToken string) (*GoogleIdentity, error)
}

// GoogleIDTokenVerifier checks signature, issuer, expiry and audience against
// Google's published keys.
type GoogleIDTokenVerifier struct {
	clientID string
	validate func(ctx context.Context, idToken, audience string) (*idtoken.Payload, error)
}

func NewGoogleIDTokenVerifier(clientID string) *GoogleIDTokenVerifier {
	return &GoogleIDTokenVerifier{clientID: clientID, validate: idtoken.Validate}
}

func (v *GoogleIDTokenVerifier) Verify(ctx context.Context, rawToken string) (*GoogleIdentity, error) {
	if v.clientID == "" {
		return nil, ErrGoogleNotConfigured
	}
	payload, err := v.validate(ctx, rawToken, v.clientID)
	if err != nil {
		return nil, fmt.Errorf("invalid google id token: %w", err)
	}
	return identityFromClaims(payload.Subject, payload.Claims), nil
}

func identityFromClaims(subject string, claims map[string]interface{}) *GoogleIdentity {
	id := &GoogleIdentity{Subject: subject}
	if id.Subject == "" {
		id.Subject, _ = claims["sub"].(string)
	}
	id.Email, _ = claims["email"].(string)
	id.Name, _ = claims["name"].(string)
	id.Picture, _ = claims["picture"].(string)

	// Google sends email_verified as a bool, older tokens as a string.
	switch v := claims["email_verified"].(type) {
	case bool:
		id.EmailVerified = v
	case string:
		id.EmailVerified = v == "true"
	}
	return id
}
