package handler

import (
	"complaintdesk/backend/internal/models"
	"net/http"

	"github.com/gin-gonic/gin"
)

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	// Role is the role picked on the login form. Optional.
	Role string `json:"role"`
}

// RegisterUser creates a student account and returns its session.
func (h *Handler) RegisterUser(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	sess, err := h.Auth.Register(c.Request.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sess)
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	var role models.Role
	if req.Role != "" {
		parsed, err := models.ParseRole(req.Role)
		if err != nil {
			badRequest(c, err.Error())
			return
		}
		role = parsed
	}
	sess, err := h.Auth.Login(c.Request.Context(), req.Email, req.Password, role)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

// Logout revokes the presented token. It succeeds even without one.
func (h *Handler) Logout(c *gin.Context) {
	if err := h.Auth.Logout(c.Request.Context(), bearerToken(c)); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, principal(c))
}
