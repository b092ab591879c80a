package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/kundali-web/internal/domain/analysis"
	"github.com/yanqian/kundali-web/internal/domain/chart"
	"github.com/yanqian/kundali-web/internal/domain/chat"
	"github.com/yanqian/kundali-web/internal/domain/form"
	"github.com/yanqian/kundali-web/internal/domain/kundali"
	"github.com/yanqian/kundali-web/internal/domain/places"
	"github.com/yanqian/kundali-web/internal/infra/config"
	apperrors "github.com/yanqian/kundali-web/pkg/errors"
)

// ChartSubmitter generates a chart for the session.
type ChartSubmitter interface {
	Submit(ctx context.Context, sessionID string, data kundali.BirthFormData) (form.SubmitResult, error)
}

// DashaToggler expands and collapses rows of the session's dasha table.
type DashaToggler interface {
	Toggle(ctx context.Context, sessionID string, row int) (chart.DashaTable, error)
}

// Handler wires the HTTP transport to domain services.
type Handler struct {
	charts    ChartSubmitter
	dashas    DashaToggler
	places    places.Service
	analysis  analysis.Service
	chat      chat.Service
	views     *Views
	defaultTZ string
	logger    *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(cfg *config.Config, charts ChartSubmitter, dashas DashaToggler, placesSvc places.Service, analysisSvc analysis.Service, chatSvc chat.Service, views *Views, logger *slog.Logger) *Handler {
	return &Handler{
		charts:    charts,
		dashas:    dashas,
		places:    placesSvc,
		analysis:  analysisSvc,
		chat:      chatSvc,
		views:     views,
		defaultTZ: cfg.Form.DefaultTimezone,
		logger:    logger.With("component", "http.handler"),
	}
}

type chatMessageRequest struct {
	Question string `json:"question"`
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// SuggestPlaces returns the debounced suggestion list. A superseded query
// answers 204 so the caller keeps whatever it shows.
func (h *Handler) SuggestPlaces(c *gin.Context) {
	list, err := h.places.Suggest(c.Request.Context(), sessionID(c), c.Query("q"))
	if apperrors.IsCode(err, apperrors.CodeSuperseded) {
		c.Status(http.StatusNoContent)
		return
	}
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	c.JSON(http.StatusOK, list)
}

// CreateChart submits birth details and returns the rendered chart.
func (h *Handler) CreateChart(c *gin.Context) {
	var req kundali.BirthFormData
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}

	result, err := h.charts.Submit(c.Request.Context(), sessionID(c), req)
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	c.JSON(http.StatusOK, result)
}

// Analyze runs the analysis for the session's last chart.
func (h *Handler) Analyze(c *gin.Context) {
	view, err := h.analysis.Analyze(c.Request.Context(), sessionID(c))
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	c.JSON(http.StatusOK, view)
}

// ChatState returns the chat widget.
func (h *Handler) ChatState(c *gin.Context) {
	h.respondChat(c, h.chat.State)
}

// OpenChat opens the chat widget.
func (h *Handler) OpenChat(c *gin.Context) {
	h.respondChat(c, h.chat.Open)
}

// CloseChat closes the chat widget.
func (h *Handler) CloseChat(c *gin.Context) {
	h.respondChat(c, h.chat.Close)
}

// SendChat posts a question to the chat widget.
func (h *Handler) SendChat(c *gin.Context) {
	var req chatMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	h.respondChat(c, func(ctx context.Context, id string) (chat.Widget, error) {
		return h.chat.Send(ctx, id, req.Question)
	})
}

// ToggleDasha flips one dasha row and returns the table.
func (h *Handler) ToggleDasha(c *gin.Context) {
	row, ok := pathIndex(c, "row")
	if !ok {
		return
	}
	table, err := h.dashas.Toggle(c.Request.Context(), sessionID(c), row)
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	c.JSON(http.StatusOK, table)
}

func (h *Handler) respondChat(c *gin.Context, fn func(context.Context, string) (chat.Widget, error)) {
	widget, err := fn(c.Request.Context(), sessionID(c))
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	c.JSON(http.StatusOK, widget)
}

func pathIndex(c *gin.Context, name string) (int, bool) {
	v, err := strconv.Atoi(c.Param(name))
	if err != nil || v < 0 {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "invalid "+name, err))
		return 0, false
	}
	return v, true
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
