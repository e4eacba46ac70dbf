package app

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/baonguyen-kobe/eiumed-equipment-sub000/db"
	"github.com/baonguyen-kobe/eiumed-equipment-sub000/models"
	"github.com/baonguyen-kobe/eiumed-equipment-sub000/session"
)

const AppSessionCookie = "app_session"

// AuthRequired resolves the session cookie, confirms the user still exists
// and stashes userID / role for downstream handlers. One user lookup per
// request.
func AuthRequired(appSess *session.AppSessionStore, repo *db.Repo) gin.HandlerFunc {
	return func(c *gin.Context) {
		ck, err := c.Request.Cookie(AppSessionCookie)
		if err != nil || ck.Value == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, H{"error": "unauthorized"})
			return
		}
		as, err := appSess.Get(c.Request.Context(), ck.Value)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, H{"error": "invalid session"})
			return
		}

		u, err := repo.FindUserByID(c.Request.Context(), as.UserID)
		if err != nil {
			_ = appSess.Delete(c.Request.Context(), ck.Value)
			c.AbortWithStatusJSON(http.StatusUnauthorized, H{"error": "unauthorized"})
			return
		}
		c.Set("userID", u.ID)
		c.Set("username", u.Username)
		c.Set("role", u.Role)
		c.Next()
	}
}

// ManagerOnly admits admins and equipment-management staff (QTVT).
func ManagerOnly() gin.HandlerFunc {
	return requireRole(models.RoleAdmin, models.RoleQTVT)
}

// AdminOnly admits admins.
func AdminOnly() gin.HandlerFunc {
	return requireRole(models.RoleAdmin)
}

func requireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, ok := c.Get("role")
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, H{"error": "unauthorized"})
			return
		}
		role, _ := v.(string)
		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, H{"error": "forbidden"})
	}
}

// IsManager reports whether the authenticated request carries a management
// role.
func IsManager(c *gin.Context) bool {
	v, _ := c.Get("role")
	role, _ := v.(string)
	return role == models.RoleAdmin || role == models.RoleQTVT
}
