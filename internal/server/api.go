package server

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/tartampluch/go-eventtracker/internal/config"
	"github.com/tartampluch/go-eventtracker/internal/engine"
	"github.com/tartampluch/go-eventtracker/internal/locale"
	"github.com/tartampluch/go-eventtracker/internal/store"
	"github.com/tartampluch/go-eventtracker/internal/tracker"
	"github.com/tartampluch/go-eventtracker/internal/transfer"
	"github.com/tartampluch/go-eventtracker/internal/widget"
)

// eventRequest is the body of POST and PUT on events.
type eventRequest struct {
	Name      string `json:"name" binding:"required"`
	Date      string `json:"date" binding:"required"`
	Type      string `json:"type"`
	YearKnown *bool  `json:"yearKnown"`
}

func (r eventRequest) toEvent() (engine.Event, error) {
	date, err := engine.ParseDate(r.Date)
	if err != nil {
		return engine.Event{}, fmt.Errorf("%w: %v", tracker.ErrInvalidEvent, err)
	}
	category := engine.Birthday
	if r.Type != "" {
		c, ok := engine.ParseCategory(r.Type)
		if !ok {
			return engine.Event{}, fmt.Errorf("%w: %s: %q", tracker.ErrInvalidEvent, config.ErrCategoryUnknown, r.Type)
		}
		category = c
	}
	yearKnown := true
	if r.YearKnown != nil {
		yearKnown = *r.YearKnown
	}
	return engine.Event{Name: r.Name, Date: date, Category: category, YearKnown: yearKnown}, nil
}

type eventResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Date      string `json:"date"`
	Type      string `json:"type"`
	YearKnown bool   `json:"yearKnown"`
}

func toResponse(ev engine.Event) eventResponse {
	return eventResponse{
		ID:        ev.ID,
		Name:      ev.Name,
		Date:      ev.Date.String(),
		Type:      string(ev.Category),
		YearKnown: ev.YearKnown,
	}
}

type occurrenceResponse struct {
	eventResponse
	Next      string `json:"next"`
	DaysUntil int    `json:"daysUntil"`
	Age       *int   `json:"age"`
	Label     string `json:"label"`
}

// localizerFor honors an optional ?lang= query parameter. Languages without
// an embedded locale get the server's default.
func (s *Server) localizerFor(c *gin.Context) *locale.Localizer {
	if loc, ok := s.locales[c.Query(config.QueryLang)]; ok {
		return loc
	}
	return s.localizer
}

func (s *Server) listEvents(c *gin.Context) {
	upcoming, err := s.tracker.Upcoming(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	loc := s.localizerFor(c)
	out := make([]occurrenceResponse, 0, len(upcoming))
	for _, o := range upcoming {
		resp := occurrenceResponse{
			eventResponse: toResponse(o.Event),
			Next:          o.Next.String(),
			DaysUntil:     o.DaysUntil,
			Label:         loc.DaysLabel(o.DaysUntil),
		}
		if o.AgeKnown {
			age := o.Age
			resp.Age = &age
		}
		out = append(out, resp)
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) createEvent(c *gin.Context) {
	var req eventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{config.JSONKeyError: err.Error()})
		return
	}
	ev, err := req.toEvent()
	if err != nil {
		writeError(c, err)
		return
	}
	created, err := s.tracker.Add(c.Request.Context(), ev)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toResponse(created))
}

func (s *Server) updateEvent(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req eventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{config.JSONKeyError: err.Error()})
		return
	}
	ev, err := req.toEvent()
	if err != nil {
		writeError(c, err)
		return
	}
	ev.ID = id
	if err := s.tracker.Edit(c.Request.Context(), ev); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toResponse(ev))
}

func (s *Server) deleteEvent(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := s.tracker.Remove(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) deleteAllEvents(c *gin.Context) {
	if err := s.tracker.RemoveAll(c.Request.Context()); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) exportEvents(c *gin.Context) {
	data, err := s.tracker.ExportText(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	name := transfer.ExportFileName(engine.Today(s.tracker.Clock))
	c.Header(config.HeaderContentDisposition, fmt.Sprintf(config.FormatAttachment, name))
	c.Data(http.StatusOK, config.MimeJSON, data)
}

func (s *Server) importEvents(c *gin.Context) {
	data, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, config.MaxImportBodySize))
	if err != nil {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{config.JSONKeyError: err.Error()})
		return
	}
	n, err := s.tracker.ImportText(c.Request.Context(), data)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{config.JSONKeyImported: n})
}

func (s *Server) widgetView(c *gin.Context) {
	view := widget.Load(c.Request.Context(), s.tracker.Store, s.tracker.Clock, s.localizerFor(c))
	c.JSON(http.StatusOK, view)
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(config.ParamID), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{config.JSONKeyError: config.ErrInvalidID})
		return 0, false
	}
	return id, true
}

// writeError maps domain errors to HTTP statuses.
func writeError(c *gin.Context, err error) {
	var formatErr *transfer.FormatError
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{config.JSONKeyError: err.Error()})
	case errors.Is(err, tracker.ErrInvalidEvent), errors.As(err, &formatErr):
		c.JSON(http.StatusBadRequest, gin.H{config.JSONKeyError: err.Error()})
	default:
		slog.Error(config.HTTPMsgInternalErr,
			config.LogKeyComponent, config.CompServer,
			config.LogKeyError, err)
		c.JSON(http.StatusInternalServerError, gin.H{config.JSONKeyError: config.HTTPMsgInternalErr})
	}
}
