package middlewares

import (
	"fmt"
	"net/http"

	"github.com/dinewell/tableside/models"
	"github.com/dinewell/tableside/utils"
	"github.com/gin-gonic/gin"
)

// RequireRoles allows only the listed staff roles through. Admin always
// passes.
func RequireRoles(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(c *gin.Context) {
		roleValue, exists := c.Get("role")
		if !exists {
			utils.RespondError(c, http.StatusUnauthorized, fmt.Errorf("unauthorized"))
			c.Abort()
			return
		}

		role, _ := roleValue.(string)
		if role != models.RoleAdmin && !allowed[role] {
			utils.RespondError(c, http.StatusForbidden, fmt.Errorf("%s access required", rolesLabel(roles)))
			c.Abort()
			return
		}
		c.Next()
	}
}

func rolesLabel(roles []string) string {
	if len(roles) == 1 {
		return roles[0]
	}
	return "staff"
}
