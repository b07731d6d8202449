package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type submitRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type assignRequest struct {
	TeacherID string `json:"teacher_id"`
}

type resolveRequest struct {
	Response string `json:"response"`
}

func (h *Handler) SubmitComplaint(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	created, err := h.Complaints.Submit(c.Request.Context(), principal(c), req.Title, req.Description)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *Handler) ListMyComplaints(c *gin.Context) {
	p := principal(c)
	list, err := h.Complaints.ListByStudent(c.Request.Context(), p, p.UserID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) ListAssignedComplaints(c *gin.Context) {
	p := principal(c)
	list, err := h.Complaints.ListByTeacher(c.Request.Context(), p, p.UserID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// ListAllComplaints serves admins. ?student_id= or ?teacher_id= narrow the list.
func (h *Handler) ListAllComplaints(c *gin.Context) {
	p := principal(c)
	ctx := c.Request.Context()
	var (
		list interface{}
		err  error
	)
	switch {
	case c.Query("student_id") != "":
		list, err = h.Complaints.ListByStudent(ctx, p, c.Query("student_id"))
	case c.Query("teacher_id") != "":
		list, err = h.Complaints.ListByTeacher(ctx, p, c.Query("teacher_id"))
	default:
		list, err = h.Complaints.ListAll(ctx, p)
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) ListPendingComplaints(c *gin.Context) {
	list, err := h.Complaints.ListPending(c.Request.Context(), principal(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) ComplaintSummary(c *gin.Context) {
	sum, err := h.Complaints.Summary(c.Request.Context(), principal(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

func (h *Handler) GetComplaint(c *gin.Context) {
	found, err := h.Complaints.Get(c.Request.Context(), principal(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, found)
}

func (h *Handler) AssignFCFS(c *gin.Context) {
	assigned, err := h.Complaints.AssignFCFS(c.Request.Context(), principal(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, assigned)
}

func (h *Handler) AssignManual(c *gin.Context) {
	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	assigned, err := h.Complaints.AssignManual(c.Request.Context(), principal(c), c.Param("id"), req.TeacherID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, assigned)
}

func (h *Handler) ResolveComplaint(c *gin.Context) {
	var req resolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	resolved, err := h.Complaints.Resolve(c.Request.Context(), principal(c), c.Param("id"), req.Response)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resolved)
}

func (h *Handler) ListTeachers(c *gin.Context) {
	teachers, err := h.Complaints.ListTeachers(c.Request.Context(), principal(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, teachers)
}
