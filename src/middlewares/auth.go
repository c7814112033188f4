package middlewares

import (
	"errors"
	"log"
	"net/http"
	"sitbook/src/config"
	"sitbook/src/types"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
)

const AdminRole = "admin"

// AdminAuthMiddleware accepts HS256 bearer tokens signed with ADMIN_JWT_SECRET whose role
// claim is admin.
func AdminAuthMiddleware(ctx *gin.Context) {
	secret := config.AdminJWTSecret()
	if len(secret) == 0 {
		log.Println("ADMIN_JWT_SECRET is not set. Rejecting admin request")
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "admin access is not configured"})
		return
	}
	bearerToken := ctx.Request.Header.Get("Authorization")
	reqToken, ok := strings.CutPrefix(bearerToken, "Bearer ")
	if !ok || reqToken == "" {
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
		return
	}
	claims := &types.Claims{}
	tkn, err := jwt.ParseWithClaims(reqToken, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil || !tkn.Valid {
		if err != nil {
			log.Printf("token error: %s\n", err.Error())
		}
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	if claims.Role != AdminRole {
		ctx.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin role required"})
		return
	}
	ctx.Set("username", claims.Username)
	ctx.Set("role", claims.Role)
	ctx.Next()
}
