// Package api exposes the list orchestrator over HTTP as JSON.
package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/directory-client/pkg/cache"
	"github.com/Sternrassler/directory-client/pkg/directory"
	"github.com/Sternrassler/directory-client/pkg/listing"
)

// Lister is the part of *listing.Orchestrator the handlers use.
type Lister interface {
	View() listing.View
	Refresh() <-chan cache.Entry
	SetSearchTerm(term string)
	SetRole(role string)
	ClearFilters()
	GoToPage(n int)
	NextPage()
	PreviousPage()
	Lookup(id string) (directory.Entity, error)
}

// ViewHandler handles HTTP requests for the list view
type ViewHandler struct {
	lister Lister
	log    zerolog.Logger
	now    func() time.Time
}

// NewViewHandler creates a new ViewHandler instance
func NewViewHandler(lister Lister, log zerolog.Logger) *ViewHandler {
	return &ViewHandler{
		lister: lister,
		log:    log,
		now:    time.Now,
	}
}

// SearchRequest represents the HTTP request body for changing the search term
type SearchRequest struct {
	Term string `json:"term" binding:"max=200"`
}

// RoleRequest represents the HTTP request body for changing the role filter
type RoleRequest struct {
	Role string `json:"role" binding:"max=100"`
}

// PageRequest represents the HTTP request body for jumping to a page
type PageRequest struct {
	Page *int `json:"page" binding:"required"`
}

// EntityResponse represents the HTTP response for a single entity
type EntityResponse struct {
	directory.Entity
	FullName string `json:"full_name"`
	Joined   string `json:"joined"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// GetView handles GET /view
func (h *ViewHandler) GetView(c *gin.Context) {
	c.JSON(http.StatusOK, h.lister.View())
}

// SetSearch handles POST /view/search
func (h *ViewHandler) SetSearch(c *gin.Context) {
	var req SearchRequest
	if !h.bind(c, &req) {
		return
	}

	h.lister.SetSearchTerm(req.Term)
	c.JSON(http.StatusOK, h.lister.View())
}

// SetRole handles POST /view/role
func (h *ViewHandler) SetRole(c *gin.Context) {
	var req RoleRequest
	if !h.bind(c, &req) {
		return
	}

	h.lister.SetRole(req.Role)
	c.JSON(http.StatusOK, h.lister.View())
}

// ClearFilters handles POST /view/clear
func (h *ViewHandler) ClearFilters(c *gin.Context) {
	h.lister.ClearFilters()
	c.JSON(http.StatusOK, h.lister.View())
}

// GoToPage handles POST /view/page
func (h *ViewHandler) GoToPage(c *gin.Context) {
	var req PageRequest
	if !h.bind(c, &req) {
		return
	}

	h.lister.GoToPage(*req.Page)
	c.JSON(http.StatusOK, h.lister.View())
}

// NextPage handles POST /view/next
func (h *ViewHandler) NextPage(c *gin.Context) {
	h.lister.NextPage()
	c.JSON(http.StatusOK, h.lister.View())
}

// PreviousPage handles POST /view/previous
func (h *ViewHandler) PreviousPage(c *gin.Context) {
	h.lister.PreviousPage()
	c.JSON(http.StatusOK, h.lister.View())
}

// Refresh handles POST /view/refresh. With ?wait=true the response is sent
// once the refetch resolved; otherwise it answers 202 with the current view.
func (h *ViewHandler) Refresh(c *gin.Context) {
	done := h.lister.Refresh()

	if c.Query("wait") != "true" {
		c.JSON(http.StatusAccepted, h.lister.View())
		return
	}

	select {
	case <-done:
		c.JSON(http.StatusOK, h.lister.View())
	case <-c.Request.Context().Done():
		h.log.Warn().Err(c.Request.Context().Err()).Msg("Client gave up waiting for refresh")
		c.JSON(http.StatusGatewayTimeout, ErrorResponse{
			Error:   "refresh_pending",
			Message: c.Request.Context().Err().Error(),
		})
	}
}

// GetEntity handles GET /entities/:id
func (h *ViewHandler) GetEntity(c *gin.Context) {
	id := c.Param("id")

	entity, err := h.lister.Lookup(id)
	if err != nil {
		if errors.Is(err, directory.ErrEntityNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: err.Error(),
			})
			return
		}
		h.log.Error().Err(err).Str("id", id).Msg("Entity lookup failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "An internal error occurred",
		})
		return
	}

	c.JSON(http.StatusOK, EntityResponse{
		Entity:   entity,
		FullName: entity.FullName(),
		Joined:   directory.FormatJoinDate(entity.JoinDate, h.now()),
	})
}

func (h *ViewHandler) bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		h.log.Warn().Err(err).Str("path", c.FullPath()).Msg("Invalid request body")
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return false
	}
	return true
}
