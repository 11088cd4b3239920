// Package auth supplies the addon token and the claims the fetch client
// needs to route requests. Token issuance and signature verification are
// the host platform's responsibility; this package only decodes claims.
package auth

import (
	"context"
	"fmt"

	"github.com/lestrrat-go/jwx/v2/jwt"
)

// Claims are the private claims carried by the addon token.
type Claims struct {
	WorkspaceID string
	BackendURL  string
	ReportsURL  string
}

// Token pairs the raw token string with its decoded claims.
type Token struct {
	Raw    string
	Claims Claims
}

// Provider supplies a token on demand. Implementations may refresh or
// re-read the token between calls.
type Provider interface {
	Token(ctx context.Context) (Token, error)
}

// Decode parses the addon JWT without verifying its signature and
// extracts the routing claims.
func Decode(raw string) (Token, error) {
	if raw == "" {
		return Token{}, fmt.Errorf("addon token is empty")
	}
	parsed, err := jwt.Parse([]byte(raw), jwt.WithVerify(false), jwt.WithValidate(false))
	if err != nil {
		return Token{}, fmt.Errorf("parsing addon token: %w", err)
	}

	claims := Claims{
		WorkspaceID: stringClaim(parsed, "workspaceId"),
		BackendURL:  stringClaim(parsed, "backendUrl"),
		ReportsURL:  stringClaim(parsed, "reportsUrl"),
	}
	if claims.WorkspaceID == "" {
		return Token{}, fmt.Errorf("addon token has no workspaceId claim")
	}
	return Token{Raw: raw, Claims: claims}, nil
}

func stringClaim(tok jwt.Token, name string) string {
	v, ok := tok.Get(name)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// StaticProvider returns a fixed token, decoded once.
type StaticProvider struct {
	tok Token
}

// NewStaticProvider decodes raw and wraps it in a provider.
func NewStaticProvider(raw string) (*StaticProvider, error) {
	tok, err := Decode(raw)
	if err != nil {
		return nil, err
	}
	return &StaticProvider{tok: tok}, nil
}

// Token implements Provider.
func (p *StaticProvider) Token(ctx context.Context) (Token, error) {
	return p.tok, nil
}
