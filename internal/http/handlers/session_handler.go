// Session HTTP handlers.
//
// This file exposes REST endpoints for conversation sessions:
//   - GET    /sessions                  (list the caller's sessions, paginated)
//   - GET    /sessions/{id}/messages    (list a session's messages, paginated)
//   - PUT    /sessions/{id}/pin         (pin or unpin a session)
//   - DELETE /sessions/{id}             (delete a session and its messages)
//
// Every endpoint is scoped to the caller's resolved identity; a session that
// belongs to another visitor is indistinguishable from a missing one.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/capacitamente/lyro-backend/internal/domain"
	"github.com/capacitamente/lyro-backend/internal/services"
	"github.com/capacitamente/lyro-backend/internal/utils"
)

//
// DTOs
//

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListSessionsResponse wraps a page of sessions and pagination information.
type ListSessionsResponse struct {
	Sessions   []domain.Session `json:"sessions"`
	Pagination Pagination       `json:"pagination"`
}

// ListSessionMessagesResponse contains a page of session messages.
type ListSessionMessagesResponse struct {
	Messages   []domain.Message `json:"messages"`
	Pagination Pagination       `json:"pagination"`
}

// PinSessionRequest is the JSON payload for pinning or unpinning a session.
type PinSessionRequest struct {
	Pinned *bool `json:"pinned" binding:"required"`
}

//
// Helpers
//

// clampPagination parses page/page_size query params, applying defaults and
// caps, and returns the validated (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

// paginationMeta computes the metadata block for a page of total items.
func paginationMeta(page, pageSize int, total int64) Pagination {
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}

//
// Handlers
//

// ListSessions godoc
// @ID          listSessions
// @Summary     List the caller's sessions
// @Description Returns a paginated list of the caller's sessions, pinned first.
// @Tags        Sessions
// @Produce     json
//
// @Param       X-Client-Token  header string false "Stable visitor token"
// @Param       page            query  int    false "Page number"    minimum(1) default(1)
// @Param       page_size       query  int    false "Items per page" minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListSessionsResponse
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /sessions [get]
func (h *Handlers) ListSessions(c *gin.Context) {
	ctx := c.Request.Context()
	identity := identityOf(c, "")
	page, pageSize := clampPagination(c)

	items, total, err := h.sessSvc.ListPage(ctx, identity, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	if items == nil {
		items = []domain.Session{}
	}
	ok(c, http.StatusOK, ListSessionsResponse{
		Sessions:   items,
		Pagination: paginationMeta(page, pageSize, total),
	})
}

// ListSessionMessages godoc
// @ID          listSessionMessages
// @Summary     List messages in a session
// @Description Returns a paginated list of messages for the given session,
// @Description oldest first. Sessions owned by other visitors return 404.
// @Tags        Sessions
// @Produce     json
//
// @Param       X-Client-Token  header string false "Stable visitor token"
// @Param       id              path   string true  "Session ID (UUID)" format(uuid)
// @Param       page            query  int    false "Page number"       minimum(1) default(1)
// @Param       page_size       query  int    false "Items per page"    minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListSessionMessagesResponse
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Session not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /sessions/{id}/messages [get]
func (h *Handlers) ListSessionMessages(c *gin.Context) {
	ctx := c.Request.Context()
	sessionID := c.Param("id")

	if _, err := uuid.Parse(sessionID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "session id must be a UUID")
		return
	}

	identity := identityOf(c, "")
	page, pageSize := clampPagination(c)

	items, total, err := h.sessSvc.Messages(ctx, identity, sessionID, page, pageSize)
	if err != nil {
		switch err {
		case services.ErrSessionNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "session not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		}
		return
	}
	if items == nil {
		items = []domain.Message{}
	}
	ok(c, http.StatusOK, ListSessionMessagesResponse{
		Messages:   items,
		Pagination: paginationMeta(page, pageSize, total),
	})
}

// PinSession godoc
// @ID          pinSession
// @Summary     Pin or unpin a session
// @Description Pinned sessions sort before unpinned ones in session listings.
// @Tags        Sessions
// @Accept      json
// @Produce     json
//
// @Param       X-Client-Token  header string true  "Stable visitor token"
// @Param       id              path   string true  "Session ID (UUID)" format(uuid)
// @Param       body            body   handlers.PinSessionRequest true "Pin flag"
//
// @Success     204  "Pinned state updated"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Session not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /sessions/{id}/pin [put]
func (h *Handlers) PinSession(c *gin.Context) {
	ctx := c.Request.Context()
	sessionID := c.Param("id")

	if _, err := uuid.Parse(sessionID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "session id must be a UUID")
		return
	}

	var req PinSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Pinned == nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "pinned flag required")
		return
	}

	identity := identityOf(c, "")
	if err := h.sessSvc.SetPinned(ctx, identity, sessionID, *req.Pinned); err != nil {
		switch err {
		case services.ErrSessionNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "session not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	noContent(c)
}

// DeleteSession godoc
// @ID          deleteSession
// @Summary     Delete a session
// @Description Permanently removes a session and all of its messages.
// @Tags        Sessions
// @Produce     json
//
// @Param       X-Client-Token  header string true "Stable visitor token"
// @Param       id              path   string true "Session ID (UUID)" format(uuid)
//
// @Success     204  "Session deleted"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Session not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /sessions/{id} [delete]
func (h *Handlers) DeleteSession(c *gin.Context) {
	ctx := c.Request.Context()
	sessionID := c.Param("id")

	if _, err := uuid.Parse(sessionID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "session id must be a UUID")
		return
	}

	identity := identityOf(c, "")
	if err := h.sessSvc.Delete(ctx, identity, sessionID); err != nil {
		switch err {
		case services.ErrSessionNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "session not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeDeleteFailed, err.Error())
		}
		return
	}
	noContent(c)
}
