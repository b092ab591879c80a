package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/kundali-web/internal/domain/form"
	"github.com/yanqian/kundali-web/internal/domain/places"
	apperrors "github.com/yanqian/kundali-web/pkg/errors"
)

// Page serves the full form page with the session's chat state.
func (h *Handler) Page(c *gin.Context) {
	widget, err := h.chat.State(c.Request.Context(), sessionID(c))
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	out, err := h.views.page(form.New(h.defaultTZ), widget)
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, "render_failed", "failed to render view", err))
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(out))
}

// PlacesFragment renders the suggestion list for the place input.
func (h *Handler) PlacesFragment(c *gin.Context) {
	query := c.Query("place")
	if query == "" {
		query = c.Query("q")
	}
	list, err := h.places.Suggest(c.Request.Context(), sessionID(c), query)
	if apperrors.IsCode(err, apperrors.CodeSuperseded) {
		c.Status(http.StatusNoContent)
		return
	}
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	h.views.write(c, http.StatusOK, "suggestions", list)
}

// DismissPlaces hides the suggestion list.
func (h *Handler) DismissPlaces(c *gin.Context) {
	var list places.Autocomplete
	list.Dismiss()
	h.views.write(c, http.StatusOK, "suggestions", list)
}

// SelectPlace fills the form from a chosen suggestion.
func (h *Handler) SelectPlace(c *gin.Context) {
	f, ok := h.bindForm(c)
	if !ok {
		return
	}
	index, err := strconv.Atoi(c.PostForm("i"))
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "invalid suggestion index", err))
		return
	}
	choice, err := h.places.Choose(c.Request.Context(), c.PostForm("q"), index)
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	f.ApplySuggestion(choice)
	h.views.write(c, http.StatusOK, "form_fields", f)
}

// SwitchMode toggles manual coordinate entry.
func (h *Handler) SwitchMode(c *gin.Context) {
	f, ok := h.bindForm(c)
	if !ok {
		return
	}
	f.SetManual(c.PostForm("manual") == "true")
	h.views.write(c, http.StatusOK, "form_fields", f)
}

// ChartFragment submits the form and renders the results section.
func (h *Handler) ChartFragment(c *gin.Context) {
	f, ok := h.bindForm(c)
	if !ok {
		return
	}
	result, err := h.charts.Submit(c.Request.Context(), sessionID(c), f.BirthData())
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	h.trigger(c, "chartRendered", gin.H{
		"scrollTo":          result.ScrollTo,
		"analyzeVisible":    result.AnalyzeVisible,
		"chatToggleVisible": result.ChatToggleVisible,
	})
	h.views.write(c, http.StatusOK, "results", result)
}

// AnalysisFragment renders the present analysis panels as out-of-band swaps.
func (h *Handler) AnalysisFragment(c *gin.Context) {
	view, err := h.analysis.Analyze(c.Request.Context(), sessionID(c))
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	h.trigger(c, "analysisRendered", gin.H{})
	h.views.write(c, http.StatusOK, "analysis", view)
}

// DashaFragment flips one dasha row and re-renders the table.
func (h *Handler) DashaFragment(c *gin.Context) {
	row, ok := pathIndex(c, "row")
	if !ok {
		return
	}
	table, err := h.dashas.Toggle(c.Request.Context(), sessionID(c), row)
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	h.views.write(c, http.StatusOK, "dasha_table", table)
}

// ChatFragment appends the question and a pending reply. The pending reply
// requests its own answer once rendered.
func (h *Handler) ChatFragment(c *gin.Context) {
	widget, err := h.chat.Ask(c.Request.Context(), sessionID(c), c.PostForm("question"))
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	h.views.write(c, http.StatusOK, "chat", widget)
}

// ChatReplyFragment answers a pending reply and re-renders the widget.
func (h *Handler) ChatReplyFragment(c *gin.Context) {
	id, ok := pathIndex(c, "id")
	if !ok {
		return
	}
	widget, err := h.chat.Resolve(c.Request.Context(), sessionID(c), int64(id))
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	h.views.write(c, http.StatusOK, "chat", widget)
}

// ToggleChatFragment opens or closes the widget.
func (h *Handler) ToggleChatFragment(c *gin.Context) {
	toggle := h.chat.Close
	if c.PostForm("open") == "true" {
		toggle = h.chat.Open
	}
	widget, err := toggle(c.Request.Context(), sessionID(c))
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	h.views.write(c, http.StatusOK, "chat", widget)
}

func (h *Handler) bindForm(c *gin.Context) (form.Form, bool) {
	f := form.New(h.defaultTZ)
	if err := c.ShouldBind(&f); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return form.Form{}, false
	}
	if f.Mode == "" {
		f.Mode = form.ModeLookup
	}
	f.PlaceDisabled = f.Manual()
	return f, true
}

func (h *Handler) trigger(c *gin.Context, event string, detail any) {
	payload, err := json.Marshal(map[string]any{event: detail})
	if err != nil {
		h.logger.Warn("encode htmx trigger failed", "event", event, "error", err)
		return
	}
	c.Header("HX-Trigger", string(payload))
}
