package middlewares

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dordoifood/restaurant-app/utils"
)

// OptionalAuth exposes the caller's claims when a valid bearer token is
// supplied, but lets anonymous requests through. Used on routes whose behavior
// depends on who is asking, such as post-bootstrap registration.
func OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("Authorization")
		if strings.HasPrefix(token, "Bearer ") {
			if claims, err := utils.ParseToken(strings.TrimPrefix(token, "Bearer ")); err == nil {
				c.Set("user_id", claims.UserID)
				c.Set("role", claims.Role)
			}
		}
		c.Next()
	}
}

// AuthMiddleware guards the admin namespace. The token comes from the
// Authorization header, or from the query string for websocket upgrades.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("Authorization")
		if token == "" && c.Query("token") != "" {
			token = "Bearer " + c.Query("token")
		}

		if token == "" {
			utils.RespondError(c, http.StatusUnauthorized, errors.New("authorization token missing"))
			c.Abort()
			return
		}

		if !strings.HasPrefix(token, "Bearer ") {
			utils.RespondError(c, http.StatusUnauthorized, errors.New("invalid token format"))
			c.Abort()
			return
		}

		claims, err := utils.ParseToken(strings.TrimPrefix(token, "Bearer "))
		if err != nil {
			utils.RespondError(c, http.StatusUnauthorized, errors.New("invalid or expired token"))
			c.Abort()
			return
		}

		if claims.Role != "admin" && claims.Role != "staff" {
			utils.RespondError(c, http.StatusUnauthorized, errors.New("admin access required"))
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("role", claims.Role)
		c.Next()
	}
}
