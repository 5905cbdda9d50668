// Auth HTTP handlers.
//
// This file exposes the identity echo endpoint:
//   - GET /auth/me  (who am I, per the verified token or dev fallback)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/selfspeak/selfspeak-backend/internal/auth"
)

// MeResponse describes the authenticated caller.
type MeResponse struct {
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
	Role   string `json:"role,omitempty"`
}

// Me echoes the caller's identity. With auth enforced the fields come from
// the verified token claims; in dev mode only the user id is known.
//
// GET /auth/me
func (h *Handlers) Me(c *gin.Context) {
	resp := MeResponse{UserID: userID(c)}
	if claims, ok := auth.ClaimsFrom(c); ok {
		resp.Email = claims.Email
		resp.Role = claims.Role
	}
	ok(c, http.StatusOK, resp)
}
