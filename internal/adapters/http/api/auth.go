package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultDevUser owns every request when no JWT secret is configured.
const DefaultDevUser = "00000000-0000-0000-0000-000000000001"

type ownerKey struct{}

// WithOwner returns a copy of ctx carrying ownerID.
func WithOwner(ctx context.Context, ownerID string) context.Context {
	return context.WithValue(ctx, ownerKey{}, ownerID)
}

// OwnerFrom returns the owner attached by the auth middleware.
func OwnerFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ownerKey{}).(string)
	return id, ok && id != ""
}

// Authenticator resolves the owner of a request from an HS256 bearer token's
// subject. With an empty secret every request belongs to devUser.
type Authenticator struct {
	secret  []byte
	devUser string
	parser  *jwt.Parser
}

// NewAuthenticator creates an Authenticator.
func NewAuthenticator(secret, devUser string) *Authenticator {
	if devUser == "" {
		devUser = DefaultDevUser
	}
	return &Authenticator{
		secret:  []byte(secret),
		devUser: devUser,
		parser:  jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired()),
	}
}

// Owner returns the owner id for r.
func (a *Authenticator) Owner(r *http.Request) (string, error) {
	if len(a.secret) == 0 {
		return a.devUser, nil
	}
	raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || strings.TrimSpace(raw) == "" {
		return "", errors.New("missing bearer token")
	}
	token, err := a.parser.Parse(strings.TrimSpace(raw), func(*jwt.Token) (any, error) {
		return a.secret, nil
	})
	if err != nil {
		return "", err
	}
	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", errors.New("token has no subject")
	}
	return sub, nil
}

// Middleware rejects unauthenticated requests and stores the owner on the
// request context.
func (a *Authenticator) Middleware(next http.HandlerFunc) http.HandlerFunc {
	const op = "api.authenticate"
	return func(w http.ResponseWriter, r *http.Request) {
		owner, err := a.Owner(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized", WrapKind(op, ErrUnauthorized, err))
			return
		}
		next(w, r.WithContext(WithOwner(r.Context(), owner)))
	}
}

// owner is the authenticated owner of r. Routes are always registered behind
// Authenticator.Middleware.
func owner(r *http.Request) string {
	id, _ := OwnerFrom(r.Context())
	return id
}
