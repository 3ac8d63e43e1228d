package server

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/marketplace/internal/authorization"
)

const bearerPrefix = "bearer "

// Authenticate resolves the bearer token to an actor. Unknown tokens stay anonymous.
func (s *Server) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := authorization.Actor{Role: authorization.RoleAnonymous}
		if token, ok := bearerToken(c.GetHeader("Authorization")); ok {
			if found, ok := s.tokens.Lookup(token); ok {
				actor = found
			}
		}
		c.Request = c.Request.WithContext(authorization.WithActor(c.Request.Context(), actor))
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	header = strings.TrimSpace(header)
	if len(header) <= len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(bearerPrefix):])
	return token, token != ""
}

func (s *Server) MarketplaceEnabled() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := s.pluginSvc.CheckEnabled(); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}

func (s *Server) RequireSuperUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := s.authzSvc.RequireSuperUser(c.Request.Context()); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}

func (s *Server) RequireAuthenticated() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := s.authzSvc.RequireAuthenticated(c.Request.Context()); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}

func (s *Server) authorize(object string, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := s.authzSvc.Authorize(c.Request.Context(), object, action); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}
