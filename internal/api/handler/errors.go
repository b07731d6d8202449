package handler

import (
	"complaintdesk/backend/internal/auth"
	"complaintdesk/backend/internal/complaint"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

var complaintStatus = map[string]int{
	complaint.KindValidation:             http.StatusBadRequest,
	complaint.KindAuthorization:          http.StatusForbidden,
	complaint.KindNotFound:               http.StatusNotFound,
	complaint.KindInvalidState:           http.StatusConflict,
	complaint.KindNoPendingComplaints:    http.StatusConflict,
	complaint.KindNoTeachersAvailable:    http.StatusConflict,
	complaint.KindConflictRetryExhausted: http.StatusConflict,
	complaint.KindInvalidTeacher:         http.StatusUnprocessableEntity,
}

// writeError aborts the request with the status and kind for err.
func writeError(c *gin.Context, err error) {
	status, kind := classify(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "err", err)
		msg = "internal error"
	}
	c.AbortWithStatusJSON(status, errorBody{Error: msg, Kind: kind})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, auth.ErrUnauthenticated):
		return http.StatusUnauthorized, "unauthenticated"
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid_credentials"
	case errors.Is(err, auth.ErrRoleMismatch):
		return http.StatusForbidden, "role_mismatch"
	case errors.Is(err, auth.ErrEmailTaken):
		return http.StatusConflict, "email_taken"
	case errors.Is(err, auth.ErrInvalidEmail),
		errors.Is(err, auth.ErrWeakPassword),
		errors.Is(err, auth.ErrNameRequired),
		errors.Is(err, auth.ErrInvalidRole):
		return http.StatusBadRequest, complaint.KindValidation
	}
	kind := complaint.KindOf(err)
	if status, ok := complaintStatus[kind]; ok {
		return status, kind
	}
	return http.StatusInternalServerError, complaint.KindInternal
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorBody{Error: msg, Kind: complaint.KindValidation})
}
