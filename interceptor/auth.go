package interceptor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/stijnvanbael/redstone/dispatch"
	rserrors "github.com/stijnvanbael/redstone/errors"
)

// ClaimsAttr is the request attribute holding the validated JWT claims.
const ClaimsAttr = "auth_claims"

// Claims is the JWT claims structure issued and validated by the auth
// interceptor.
type Claims struct {
	jwt.RegisteredClaims
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role,omitempty"`
}

// JWTService issues and validates tokens.
type JWTService struct {
	secretKey string
	tokenTTL  time.Duration
	issuer    string
}

// NewJWTService creates a JWT service instance.
func NewJWTService(secretKey string, tokenTTL time.Duration, issuer string) *JWTService {
	return &JWTService{
		secretKey: secretKey,
		tokenTTL:  tokenTTL,
		issuer:    issuer,
	}
}

// GenerateToken generates a signed token for a user.
func (s *JWTService) GenerateToken(userID, username, role string) (string, error) {
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    s.issuer,
			Subject:   userID,
		},
		UserID:   userID,
		Username: username,
		Role:     role,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.secretKey))
}

// ValidateToken validates a token and returns its claims.
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.secretKey), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// JWTAuth returns an interceptor that requires a valid bearer token. The
// validated claims are stored as a request attribute for parameter providers
// and handlers downstream.
func JWTAuth(service *JWTService) dispatch.InterceptorFunc {
	return func(ctx context.Context, ch *dispatch.Chain) error {
		c := dispatch.MustFromContext(ctx)

		auth := c.Header("Authorization")
		const prefix = "Bearer "
		if !strings.HasPrefix(auth, prefix) {
			return rserrors.Unauthorized("missing bearer token")
		}

		claims, err := service.ValidateToken(strings.TrimPrefix(auth, prefix))
		if err != nil {
			return rserrors.Unauthorized("invalid token")
		}

		c.SetAttribute(ClaimsAttr, claims)
		return ch.Next()
	}
}

// GetClaims retrieves the validated claims of the current request.
func GetClaims(c *dispatch.Ctx) *Claims {
	claims, _ := c.Attribute(ClaimsAttr).(*Claims)
	return claims
}
