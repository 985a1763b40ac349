package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Central-University-IT-prod/2025-final-command-team-23-hnz-back/internal/utils"
)

const claimsContextKey = "auth_claims"

// JWTAuth validates the bearer token (signature, expiry, revocation) and
// stores the parsed claims on the request context.
func JWTAuth(tokens *utils.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Authentication token required"})
			return
		}

		tokenStr := strings.TrimPrefix(header, "Bearer ")
		claims, err := tokens.ParseToken(c.Request.Context(), tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Invalid token"})
			return
		}

		c.Set(claimsContextKey, claims)
		c.Next()
	}
}

// CompanyOnly rejects requests whose token was not issued to a company.
func CompanyOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := ClaimsFromContext(c)
		if claims == nil || claims.UserType != utils.UserTypeCompany {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"detail": "Company credentials required"})
			return
		}
		c.Next()
	}
}

// CashierOnly rejects requests whose token was not issued to a cashier.
func CashierOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := ClaimsFromContext(c)
		if claims == nil || claims.UserType != utils.UserTypeCashier || claims.CashierID == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"detail": "Cashier credentials required"})
			return
		}
		c.Next()
	}
}

func ClaimsFromContext(c *gin.Context) *utils.Claims {
	value, ok := c.Get(claimsContextKey)
	if !ok {
		return nil
	}
	claims, ok := value.(*utils.Claims)
	if !ok {
		return nil
	}
	return claims
}
