package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lms-access-api/internal/middleware"
	"github.com/noah-isme/lms-access-api/internal/models"
	appErrors "github.com/noah-isme/lms-access-api/pkg/errors"
	"github.com/noah-isme/lms-access-api/pkg/response"
)

func claimsFromContext(c *gin.Context) *models.Claims {
	return middleware.ClaimsFrom(c)
}

// requireClaims writes a 401 and returns nil when the route was not gated.
func requireClaims(c *gin.Context) *models.Claims {
	claims := claimsFromContext(c)
	if claims == nil || claims.Guest {
		response.Error(c, appErrors.ErrMissingCredential)
		return nil
	}
	return claims
}

func bindJSON(c *gin.Context, dest interface{}, message string) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message))
		return false
	}
	return true
}
