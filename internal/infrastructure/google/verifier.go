package google

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/gommon/log"
)

// URL where the identity provider publishes the public keys used to sign
// the ID tokens of every project.
const jwksURL = "https://www.googleapis.com/service_accounts/v1/jwk/securetoken@system.gserviceaccount.com"

const issuerPrefix = "https://securetoken.google.com/"

// Token is the verified identity extracted from a bearer credential.
type Token struct {
	Sub   string
	Email string
	Name  string
	Exp   int64
}

// Verifier validates ID tokens locally against the provider's JWKS.
// Issuance, sign-in and key rotation all live on the provider side.
type Verifier struct {
	jwks      keyfunc.Keyfunc
	projectID string
}

type serviceAccount struct {
	ProjectID string `json:"project_id"`
}

// NewVerifier decodes the base64-encoded service-account credential to learn
// the project id, then starts fetching the provider's JWKS in the background.
func NewVerifier(serviceAccountB64 string) (*Verifier, error) {
	raw, err := base64.StdEncoding.DecodeString(serviceAccountB64)
	if err != nil {
		return nil, fmt.Errorf("invalid service account credential: %w", err)
	}

	var sa serviceAccount
	if err = json.Unmarshal(raw, &sa); err != nil {
		return nil, fmt.Errorf("malformed service account JSON: %w", err)
	}

	if sa.ProjectID == "" {
		return nil, errors.New("service account has no project_id")
	}

	jwks, err := keyfunc.NewDefault([]string{jwksURL})
	if err != nil {
		return nil, fmt.Errorf("failed to create JWKS from resource at %s: %w", jwksURL, err)
	}

	log.Infof("JWKS initialized. Keys loaded from %s", jwksURL)
	return &Verifier{jwks: jwks, projectID: sa.ProjectID}, nil
}

// Verify parses AND validates the signature locally.
// It returns the identity if the token is authentic, unexpired, and was
// issued for this project. All failure kinds collapse into one error;
// callers treat any of them as "unauthenticated".
func (v *Verifier) Verify(ctx context.Context, tokenString string) (*Token, error) {
	clean := sanitizeToken(tokenString)
	if clean == "" {
		return nil, errors.New("empty token")
	}

	token, err := jwt.Parse(clean, v.jwks.Keyfunc,
		jwt.WithIssuer(issuerPrefix+v.projectID),
		jwt.WithAudience(v.projectID),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	if !token.Valid {
		return nil, errors.New("token is not valid")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid claims format")
	}

	return &Token{
		Sub:   getValue(claims, "sub"),
		Email: getValue(claims, "email"),
		Name:  getValue(claims, "name"),
		Exp:   getInt64(claims, "exp"),
	}, nil
}

func sanitizeToken(token string) string {
	return strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
}

func getValue(claims jwt.MapClaims, key string) string {
	if val, ok := claims[key].(string); ok {
		return val
	}
	return ""
}

func getInt64(claims jwt.MapClaims, key string) int64 {
	val, ok := claims[key]
	if !ok {
		return 0
	}
	if f, ok := val.(float64); ok {
		return int64(f)
	}
	if i, ok := val.(int64); ok {
		return i
	}
	return 0
}
