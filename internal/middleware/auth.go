package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"mockprep/internal/models"
	"mockprep/internal/utils"
)

const ownerKey contextKey = "owner_identity"

var (
	ErrMissingAuthHeader = errors.New("missing or malformed Authorization header")
	ErrInvalidToken      = errors.New("invalid token")
	ErrInvalidClaims     = errors.New("invalid token claims")
)

var parseJWT = func(tokenStr string, keyFunc jwt.Keyfunc) (*jwt.Token, error) {
	return jwt.Parse(tokenStr, keyFunc, jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}))
}

// VerifyToken validates an HMAC-signed JWT and returns the owner identity it carries:
// the "email" claim, or "sub" when no email is present. The identity is normalized.
func VerifyToken(tokenStr, secret string) (string, error) {
	token, err := parseJWT(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidClaims
	}
	for _, name := range []string{"email", "sub"} {
		if v, ok := claims[name].(string); ok && strings.TrimSpace(v) != "" {
			return utils.NormalizeEmail(v), nil
		}
	}
	return "", ErrInvalidClaims
}

// bearerToken reads "Authorization: Bearer <jwt>". Browsers cannot set headers on a
// websocket upgrade, so a ?token= query parameter is accepted on GET requests too.
func bearerToken(r *http.Request) (string, error) {
	authz := r.Header.Get("Authorization")
	if strings.HasPrefix(authz, "Bearer ") {
		return strings.TrimPrefix(authz, "Bearer "), nil
	}
	if authz == "" && r.Method == http.MethodGet {
		if t := r.URL.Query().Get("token"); t != "" {
			return t, nil
		}
	}
	return "", ErrMissingAuthHeader
}

// Authenticate rejects requests without a valid bearer token and stores the owner
// identity in the request context.
func Authenticate(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr, err := bearerToken(r)
			if err != nil {
				utils.JSON(w, http.StatusUnauthorized, models.ErrorResponse{Code: "unauthorized", Message: err.Error()})
				return
			}
			owner, err := VerifyToken(tokenStr, secret)
			if err != nil {
				utils.JSON(w, http.StatusUnauthorized, models.ErrorResponse{Code: "unauthorized", Message: err.Error()})
				return
			}
			next.ServeHTTP(w, r.WithContext(WithOwner(r.Context(), owner)))
		})
	}
}

func WithOwner(ctx context.Context, owner string) context.Context {
	return context.WithValue(ctx, ownerKey, owner)
}

// Owner returns the authenticated identity, or "" outside Authenticate.
func Owner(ctx context.Context) string {
	owner, _ := ctx.Value(ownerKey).(string)
	return owner
}
