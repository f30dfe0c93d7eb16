package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/court-season-backend/internal/auth"
)

// MeResponse is the identity carried by the caller's token.
type MeResponse struct {
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
	Role   string `json:"role"`
}

//
// GET /v1/me
//

func Me(c *gin.Context) {
	c.JSON(http.StatusOK, MeResponse{
		UserID: auth.GetUserID(c),
		Email:  auth.GetUserEmail(c),
		Role:   string(auth.GetRole(c)),
	})
}
