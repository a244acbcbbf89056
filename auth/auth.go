// auth/auth.go
package auth

import (
	"errors"
	"fmt"

	"github.com/ViniZap4/lumi-estimates/domain"
	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

const (
	TokenHeader  = "X-Lumi-Token"
	workspaceKey = "workspace"
)

var ErrNoWorkspace = errors.New("no authenticated workspace")

// Credential binds a workspace to the bcrypt hash of its API token.
type Credential struct {
	Workspace domain.Workspace
	TokenHash string
}

type Authenticator struct {
	credentials []Credential
}

func NewAuthenticator(credentials ...Credential) *Authenticator {
	return &Authenticator{credentials: credentials}
}

// HashToken hashes a plain token for use in a Credential.
func HashToken(token string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash token: %w", err)
	}
	return string(hash), nil
}

// Authenticate returns the workspace whose token matches.
func (a *Authenticator) Authenticate(token string) (domain.Workspace, bool) {
	if token == "" {
		return domain.Workspace{}, false
	}
	for _, cred := range a.credentials {
		if bcrypt.CompareHashAndPassword([]byte(cred.TokenHash), []byte(token)) == nil {
			return cred.Workspace, true
		}
	}
	return domain.Workspace{}, false
}

func (a *Authenticator) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ws, ok := a.Authenticate(c.Get(TokenHeader))
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized")
		}
		c.Locals(workspaceKey, ws)
		return c.Next()
	}
}

// WorkspaceFrom returns the workspace stored by Middleware.
func WorkspaceFrom(c *fiber.Ctx) (domain.Workspace, error) {
	ws, ok := c.Locals(workspaceKey).(domain.Workspace)
	if !ok {
		return domain.Workspace{}, ErrNoWorkspace
	}
	return ws, nil
}
