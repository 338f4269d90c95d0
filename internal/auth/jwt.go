package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/shiftwise/marketd/internal/models"
)

const issuer = "marketd"

// Claims is the JWT claim set issued for marketplace callers. The subject
// carries the user ID; tenant and permission grants ride as private claims.
type Claims struct {
	TenantID    string   `json:"tenant_id"`
	Permissions []string `json:"permissions,omitempty"`
	jwt.RegisteredClaims
}

// IssueToken creates a signed HS256 token for the given principal.
func IssueToken(signingSecret []byte, principal *models.Principal, ttl time.Duration) (string, error) {
	if len(signingSecret) == 0 {
		return "", errors.New("signing secret not provided")
	}

	grants := make([]string, 0, len(principal.Permissions))
	for grant, ok := range principal.Permissions {
		if ok {
			grants = append(grants, grant)
		}
	}

	now := time.Now()
	claims := &Claims{
		TenantID:    principal.TenantID.String(),
		Permissions: grants,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principal.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(signingSecret)
}

// VerifyToken parses and validates a token, returning the principal it
// carries.
func VerifyToken(signingSecret []byte, tokenString string) (*models.Principal, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("invalid signing method")
		}
		return signingSecret, nil
	}, jwt.WithIssuer(issuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid claims")
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, errors.New("invalid subject claim")
	}

	tenantID, err := uuid.Parse(claims.TenantID)
	if err != nil {
		return nil, errors.New("invalid tenant claim")
	}

	permissions := make(map[string]bool, len(claims.Permissions))
	for _, grant := range claims.Permissions {
		permissions[grant] = true
	}

	return &models.Principal{
		TenantID:    tenantID,
		UserID:      userID,
		Permissions: permissions,
	}, nil
}
