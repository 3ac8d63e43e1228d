package authorization

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/smallbiznis/marketplace/internal/config"
	"golang.org/x/crypto/blake2b"
)

// TokenRegistry resolves bearer tokens to actors. Only token hashes are kept.
type TokenRegistry struct {
	actors map[string]Actor
}

// NewTokenRegistry builds the registry from the configured access tokens.
func NewTokenRegistry(cfg config.Config) (*TokenRegistry, error) {
	return ParseAccessTokens(cfg.AccessTokens)
}

// ParseAccessTokens parses "login:role:token" entries.
func ParseAccessTokens(entries []string) (*TokenRegistry, error) {
	registry := &TokenRegistry{actors: make(map[string]Actor, len(entries))}
	for _, entry := range entries {
		parts := strings.SplitN(strings.TrimSpace(entry), ":", 3)
		if len(parts) != 3 {
			return nil, fmt.Errorf("%w: expected login:role:token", ErrInvalidToken)
		}
		login := strings.TrimSpace(parts[0])
		role := strings.ToLower(strings.TrimSpace(parts[1]))
		token := strings.TrimSpace(parts[2])
		if login == "" || token == "" {
			return nil, fmt.Errorf("%w: empty login or token", ErrInvalidToken)
		}
		switch role {
		case RoleSuperUser, RoleUser:
		default:
			return nil, fmt.Errorf("%w: unknown role %q for %s", ErrInvalidToken, role, login)
		}
		registry.actors[HashToken(token)] = Actor{Login: login, Role: role}
	}
	return registry, nil
}

// Lookup returns the actor owning token.
func (r *TokenRegistry) Lookup(token string) (Actor, bool) {
	token = strings.TrimSpace(token)
	if r == nil || token == "" {
		return Actor{}, false
	}
	actor, ok := r.actors[HashToken(token)]
	return actor, ok
}

func HashToken(token string) string {
	sum := blake2b.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
