package meetings

import (
	"log"
	"net/http"
	"time"

	"retail-billing-app/config"
	"retail-billing-app/internal/domain/users"
	"retail-billing-app/internal/infra/zoom"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

type Handler struct {
	Zoom *zoom.Client
}

func NewHandler(zoomClient *zoom.Client) *Handler {
	return &Handler{Zoom: zoomClient}
}

type createMeetingRequest struct {
	Topic     string    `json:"topic" binding:"required"`
	StartTime time.Time `json:"start_time" binding:"required"`
	Duration  int       `json:"duration" binding:"required,gt=0"`
	Agenda    string    `json:"agenda"`
}

// POST /meetings
func (h *Handler) CreateMeeting(c *gin.Context) {
	var req createMeetingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if h.Zoom == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Zoom not configured"})
		return
	}

	meeting, err := h.Zoom.CreateMeeting(c.Request.Context(), &zoom.MeetingRequest{
		Topic:     req.Topic,
		StartTime: req.StartTime,
		Duration:  req.Duration,
		Agenda:    req.Agenda,
	})
	if err != nil {
		log.Println("zoom meeting creation failed:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create meeting"})
		return
	}

	c.JSON(http.StatusCreated, meeting)
}

type videoTokenRequest struct {
	Room string `json:"room" binding:"required"`
}

// POST /video/token — short-lived HMAC-signed room token for the video
// service.
func (h *Handler) CreateVideoToken(c *gin.Context) {
	var req videoTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if config.VIDEO_TOKEN_SECRET == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Video token secret not configured"})
		return
	}

	user := c.MustGet("user").(users.User)

	now := time.Now()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  user.ExternalID,
		"name": user.FirstName + " " + user.LastName,
		"room": req.Room,
		"iat":  now.Unix(),
		"exp":  now.Add(2 * time.Hour).Unix(),
	})
	signed, err := t.SignedString([]byte(config.VIDEO_TOKEN_SECRET))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to sign token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      signed,
		"expires_at": now.Add(2 * time.Hour),
	})
}
