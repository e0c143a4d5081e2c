package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/hisaab/internal/config"
	"github.com/mamadbah2/hisaab/internal/service/access"
)

const principalKey = "hisaab.principal"

// Identity headers used when no identity provider is configured.
const (
	HeaderUserID   = "X-User-ID"
	HeaderRole     = "X-User-Role"
	HeaderBranches = "X-User-Branches"
)

// ErrUnauthenticated is returned when a request carries no usable identity.
var ErrUnauthenticated = errors.New("unauthenticated")

// Authenticator resolves the caller of a request.
type Authenticator interface {
	Authenticate(r *http.Request) (access.Principal, error)
}

// HeaderAuthenticator trusts identity headers set by an upstream proxy.
type HeaderAuthenticator struct{}

func (HeaderAuthenticator) Authenticate(r *http.Request) (access.Principal, error) {
	userID := strings.TrimSpace(r.Header.Get(HeaderUserID))
	if userID == "" {
		return access.Principal{}, fmt.Errorf("%w: missing %s header", ErrUnauthenticated, HeaderUserID)
	}
	role, err := access.ParseRole(r.Header.Get(HeaderRole))
	if err != nil {
		return access.Principal{}, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	return access.Principal{UserID: userID, Role: role, BranchIDs: splitList(r.Header.Get(HeaderBranches))}, nil
}

// tokenClaims are the custom claims read from verified ID tokens.
type tokenClaims struct {
	Subject  string   `json:"sub"`
	Role     string   `json:"role"`
	Branches []string `json:"branches"`
}

// OIDCAuthenticator verifies bearer ID tokens.
type OIDCAuthenticator struct {
	verifier *oidc.IDTokenVerifier
}

// NewOIDCAuthenticator discovers the issuer and builds a verifier for the
// configured client.
func NewOIDCAuthenticator(ctx context.Context, cfg config.AuthConfig) (*OIDCAuthenticator, error) {
	provider, err := oidc.NewProvider(ctx, cfg.IssuerURL)
	if err != nil {
		return nil, fmt.Errorf("discover oidc issuer: %w", err)
	}
	return NewOIDCAuthenticatorWithVerifier(provider.Verifier(&oidc.Config{ClientID: cfg.ClientID})), nil
}

// NewOIDCAuthenticatorWithVerifier wraps an existing verifier.
func NewOIDCAuthenticatorWithVerifier(v *oidc.IDTokenVerifier) *OIDCAuthenticator {
	return &OIDCAuthenticator{verifier: v}
}

func (a *OIDCAuthenticator) Authenticate(r *http.Request) (access.Principal, error) {
	const prefix = "Bearer "
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, prefix) {
		return access.Principal{}, fmt.Errorf("%w: missing bearer token", ErrUnauthenticated)
	}

	token, err := a.verifier.Verify(r.Context(), strings.TrimPrefix(header, prefix))
	if err != nil {
		return access.Principal{}, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	var claims tokenClaims
	if err := token.Claims(&claims); err != nil {
		return access.Principal{}, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	role, err := access.ParseRole(claims.Role)
	if err != nil {
		return access.Principal{}, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	return access.Principal{UserID: token.Subject, Role: role, BranchIDs: claims.Branches}, nil
}

// Identity authenticates every request and stores the principal on the
// context.
func Identity(auth Authenticator, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		p, err := auth.Authenticate(c.Request)
		if err != nil {
			logger.Debug("request rejected", zap.String("path", c.Request.URL.Path), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		c.Set(principalKey, p)
		c.Next()
	}
}

// PrincipalFrom returns the principal stored by Identity.
func PrincipalFrom(c *gin.Context) (access.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return access.Principal{}, false
	}
	p, ok := v.(access.Principal)
	return p, ok
}

// RequireModule rejects principals whose role may not open module.
func RequireModule(module access.Module) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := PrincipalFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		if !access.CanAccessModule(p.Role, module) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "access to " + string(module) + " denied"})
			return
		}
		c.Next()
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
