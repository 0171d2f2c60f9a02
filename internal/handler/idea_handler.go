package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"planner/internal/middleware"
	"planner/internal/model"
	"planner/internal/planner"
	"planner/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// IdeaStore is the storage the idea handler needs.
type IdeaStore interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Idea, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Idea, error)
	Create(ctx context.Context, idea *model.Idea) error
	Update(ctx context.Context, idea *model.Idea) error
	Delete(ctx context.Context, id uuid.UUID) error
	ApplyOrder(ctx context.Context, userID uuid.UUID, columns []string, order repository.Order) error
}

var _ IdeaStore = (*repository.IdeaRepository)(nil)

type IdeaHandler struct {
	ideas   IdeaStore
	columns planner.Columns
}

func NewIdeaHandler(ideas IdeaStore, columns planner.Columns) *IdeaHandler {
	return &IdeaHandler{ideas: ideas, columns: columns}
}

// CreateIdeaRequest is the body of POST /planner/ideas
type CreateIdeaRequest struct {
	Title  string  `json:"title" binding:"required"`
	Notes  *string `json:"notes"`
	Status string  `json:"status"`
}

// UpdateIdeaRequest is the body of PUT /planner/ideas/:id
type UpdateIdeaRequest struct {
	Title        string  `json:"title" binding:"required"`
	DisplayTitle string  `json:"display_title"`
	Notes        *string `json:"notes"`
}

// MoveResponse answers a reorder. A rejected order is a normal answer, not an HTTP error.
type MoveResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type IdeaResponse struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	DisplayTitle string  `json:"display_title"`
	Notes        *string `json:"notes"`
	Status       string  `json:"status"`
}

func toIdeaResponse(idea model.Idea) IdeaResponse {
	display := idea.Title
	if idea.DisplayTitle != nil && strings.TrimSpace(*idea.DisplayTitle) != "" {
		display = *idea.DisplayTitle
	}
	return IdeaResponse{
		ID:           idea.ID.String(),
		Title:        idea.Title,
		DisplayTitle: display,
		Notes:        idea.Notes,
		Status:       idea.Status,
	}
}

func currentUser(c *gin.Context) (uuid.UUID, bool) {
	userID, exists := c.Get(middleware.UserIDKey)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return uuid.Nil, false
	}
	id, ok := userID.(uuid.UUID)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Invalid user ID format"})
		return uuid.Nil, false
	}
	return id, true
}

// ownedIdea loads the idea named by :id and checks it belongs to userID.
func (h *IdeaHandler) ownedIdea(c *gin.Context, userID uuid.UUID) (*model.Idea, bool) {
	ideaID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid idea ID format"})
		return nil, false
	}

	idea, err := h.ideas.GetByID(c.Request.Context(), ideaID)
	if err != nil {
		if errors.Is(err, repository.ErrIdeaNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Idea not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve idea"})
		}
		return nil, false
	}

	if idea.UserID != userID {
		c.JSON(http.StatusNotFound, gin.H{"error": "Idea not found"})
		return nil, false
	}
	return idea, true
}

// GetBoard godoc
// @Summary  Get the planner board
// @Tags     Planner
// @Produce  json
// @Success  200 {object} map[string][]IdeaResponse
// @Security BearerAuth
// @Router   /planner/ideas [get]
func (h *IdeaHandler) GetBoard(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	ideas, err := h.ideas.ListByUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve ideas"})
		return
	}

	board := make(map[string][]IdeaResponse, len(h.columns))
	for _, col := range h.columns {
		board[string(col.ID)] = []IdeaResponse{}
	}
	first := string(h.columns.First())
	for _, idea := range ideas {
		status := idea.Status
		if _, known := board[status]; !known {
			// Stored under a column that is no longer configured.
			log.Printf("⚠️  idea %s has unknown status %q, listing it under %q", idea.ID, status, first)
			status = first
		}
		board[status] = append(board[status], toIdeaResponse(idea))
	}

	c.JSON(http.StatusOK, board)
}

// Move godoc
// @Summary  Save the full board order
// @Tags     Planner
// @Accept   json
// @Produce  json
// @Param    request body map[string][]string true "Column to ordered idea ids"
// @Success  200 {object} MoveResponse
// @Security BearerAuth
// @Router   /planner/ideas/move [post]
func (h *IdeaHandler) Move(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req map[string][]string
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, MoveResponse{Message: "Invalid request"})
		return
	}

	order := make(repository.Order, len(req))
	for col, rawIDs := range req {
		ids := make([]uuid.UUID, len(rawIDs))
		for i, raw := range rawIDs {
			id, err := uuid.Parse(raw)
			if err != nil {
				c.JSON(http.StatusBadRequest, MoveResponse{Message: "Invalid idea ID format"})
				return
			}
			ids[i] = id
		}
		order[col] = ids
	}

	columns := make([]string, len(h.columns))
	for i, col := range h.columns {
		columns[i] = string(col.ID)
	}

	err := h.ideas.ApplyOrder(c.Request.Context(), userID, columns, order)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, MoveResponse{Success: true})
	case errors.Is(err, repository.ErrUnknownColumn), errors.Is(err, repository.ErrOrderMismatch):
		c.JSON(http.StatusOK, MoveResponse{Message: "Board is out of date, reload and try again"})
	default:
		log.Printf("❌ failed to save order for %s: %v", userID, err)
		c.JSON(http.StatusInternalServerError, MoveResponse{Message: "Failed to save order"})
	}
}

// Create godoc
// @Summary  Create an idea in the first column
// @Tags     Planner
// @Accept   json
// @Produce  json
// @Param    request body CreateIdeaRequest true "New idea"
// @Success  201 {object} IdeaResponse
// @Security BearerAuth
// @Router   /planner/ideas [post]
func (h *IdeaHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req CreateIdeaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Title is required"})
		return
	}

	first := string(h.columns.First())
	if req.Status != "" && req.Status != first {
		c.JSON(http.StatusBadRequest, gin.H{"error": "New ideas always start in the " + first + " column"})
		return
	}

	idea := &model.Idea{
		ID:           uuid.New(),
		UserID:       userID,
		Title:        title,
		DisplayTitle: &title,
		Notes:        req.Notes,
		Status:       first,
	}

	if err := h.ideas.Create(c.Request.Context(), idea); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create idea"})
		return
	}

	c.JSON(http.StatusCreated, toIdeaResponse(*idea))
}

// Update godoc
// @Summary  Update an idea's content
// @Tags     Planner
// @Accept   json
// @Produce  json
// @Param    id      path string            true "Idea ID"
// @Param    request body UpdateIdeaRequest true "Content"
// @Success  200 {object} IdeaResponse
// @Security BearerAuth
// @Router   /planner/ideas/{id} [put]
func (h *IdeaHandler) Update(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	idea, ok := h.ownedIdea(c, userID)
	if !ok {
		return
	}

	var req UpdateIdeaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	upd := planner.ItemUpdate{Title: req.Title, DisplayTitle: req.DisplayTitle, Notes: req.Notes}.Normalize()
	if upd.Title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Title is required"})
		return
	}

	idea.Title = upd.Title
	idea.DisplayTitle = &upd.DisplayTitle
	idea.Notes = upd.Notes

	if err := h.ideas.Update(c.Request.Context(), idea); err != nil {
		if errors.Is(err, repository.ErrIdeaNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Idea not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update idea"})
		return
	}

	c.JSON(http.StatusOK, toIdeaResponse(*idea))
}

// Delete godoc
// @Summary  Delete an idea
// @Tags     Planner
// @Produce  json
// @Param    id path string true "Idea ID"
// @Success  200 {object} MoveResponse
// @Security BearerAuth
// @Router   /planner/ideas/{id} [delete]
func (h *IdeaHandler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	idea, ok := h.ownedIdea(c, userID)
	if !ok {
		return
	}

	if err := h.ideas.Delete(c.Request.Context(), idea.ID); err != nil {
		if errors.Is(err, repository.ErrIdeaNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Idea not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete idea"})
		return
	}

	c.JSON(http.StatusOK, MoveResponse{Success: true})
}
