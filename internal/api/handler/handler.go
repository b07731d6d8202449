package handler

import (
	"complaintdesk/backend/internal/auth"
	"complaintdesk/backend/internal/complaint"
	"complaintdesk/backend/internal/feed"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler holds the services behind the HTTP API.
type Handler struct {
	Auth       *auth.Service
	Complaints *complaint.Service
	Hub        *feed.Hub
	// AllowedOrigins lists browser origins that may open /ws. "*" allows any.
	// Empty means same-host only.
	AllowedOrigins []string
}

func NewHandler(a *auth.Service, c *complaint.Service, hub *feed.Hub) *Handler {
	return &Handler{Auth: a, Complaints: c, Hub: hub}
}

// Register mounts every route on r.
func (h *Handler) Register(r *gin.Engine) {
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authGroup := r.Group("/auth")
	authGroup.POST("/register", h.RegisterUser)
	authGroup.POST("/login", h.Login)
	authGroup.POST("/logout", h.Logout)
	authGroup.GET("/me", h.RequireAuth(), h.Me)

	api := r.Group("/", h.RequireAuth())
	api.POST("/complaints", h.SubmitComplaint)
	api.GET("/complaints", h.ListAllComplaints)
	api.GET("/complaints/mine", h.ListMyComplaints)
	api.GET("/complaints/assigned", h.ListAssignedComplaints)
	api.GET("/complaints/pending", h.ListPendingComplaints)
	api.GET("/complaints/summary", h.ComplaintSummary)
	api.GET("/complaints/:id", h.GetComplaint)
	api.POST("/complaints/assign/fcfs", h.AssignFCFS)
	api.POST("/complaints/:id/assign", h.AssignManual)
	api.POST("/complaints/:id/resolve", h.ResolveComplaint)
	api.GET("/teachers", h.ListTeachers)

	r.GET("/ws", h.ServeWebSocket)
}

// NewRouter builds a gin engine with recovery, request logging and all routes.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(RequestLog(), gin.Recovery())
	h.Register(r)
	return r
}
