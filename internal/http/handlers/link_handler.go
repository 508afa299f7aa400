package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-linkbox/internal/http/middleware"
	"github.com/tbourn/go-linkbox/internal/services"
	"github.com/tbourn/go-linkbox/internal/supervisor"
	"github.com/tbourn/go-linkbox/internal/telegram"
)

// HealthSource reports supervised task states (*supervisor.Supervisor).
type HealthSource interface {
	Snapshot() []supervisor.Status
	Healthy() bool
}

// Handler serves the link redirect and the health report.
type Handler struct {
	// FileBot is the @username (without "@") of the file-server bot.
	FileBot string
	Health  HealthSource
}

// New constructs a Handler.
func New(fileBot string, health HealthSource) *Handler {
	return &Handler{FileBot: fileBot, Health: health}
}

// Redirect godoc
//
// @ID          redirectLink
// @Summary     Open a shared file link
// @Description Redirects "<worker-domain>/{token}" to the file-server bot deep link, which delivers the stored file after the channel-membership check.
// @Tags        Links
// @Produce     json
// @Param       token  path  string  true  "Mapping token (1-64 alphanumerics)"  example(aB3dE9)
// @Success     302  "Redirect to https://t.me/<bot>?start={token}"
// @Header      302  {string}  Location  "Telegram deep link"
// @Failure     404  {object}  handlers.ErrorResponse  "Invalid token"
// @Failure     429  {object}  handlers.ErrorResponse  "Rate limited"
// @Failure     503  {object}  handlers.ErrorResponse  "File-server bot not configured"
// @Router      /{token} [get]
func (h *Handler) Redirect(c *gin.Context) {
	token := c.Param("token")
	if !services.ValidToken(token) {
		middleware.CountRedirect("invalid")
		fail(c, http.StatusNotFound, ErrCodeNotFound, "link not found")
		return
	}
	if h.FileBot == "" {
		fail(c, http.StatusServiceUnavailable, ErrCodeUnavailable, "file server not configured")
		return
	}
	middleware.CountRedirect("redirected")
	c.Redirect(http.StatusFound, telegram.DeepLink(h.FileBot, token))
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string              `json:"status" example:"ok"`
	Tasks  []supervisor.Status `json:"tasks"`
}

// HealthCheck godoc
//
// @ID          health
// @Summary     Health of the bots and HTTP server
// @Description Reports every supervised task. 200 when all are running, 503 while any is starting, restarting or stopped.
// @Tags        Ops
// @Produce     json
// @Success     200  {object}  handlers.HealthResponse
// @Failure     503  {object}  handlers.HealthResponse
// @Router      /health [get]
func (h *Handler) HealthCheck(c *gin.Context) {
	if h.Health == nil {
		c.JSON(http.StatusOK, HealthResponse{Status: "ok", Tasks: []supervisor.Status{}})
		return
	}
	resp := HealthResponse{Status: "ok", Tasks: h.Health.Snapshot()}
	status := http.StatusOK
	if !h.Health.Healthy() {
		resp.Status = "degraded"
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, resp)
}
