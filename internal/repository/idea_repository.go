package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"planner/internal/model"
)

// Order is a full board arrangement: column name to ordered idea ids.
type Order map[string][]uuid.UUID

type IdeaRepository struct {
	db *gorm.DB
}

func NewIdeaRepository(db *gorm.DB) *IdeaRepository {
	return &IdeaRepository{db: db}
}

// ListByUser returns every idea of a user ordered by position
func (r *IdeaRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Idea, error) {
	var ideas []model.Idea
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("position").Find(&ideas).Error
	return ideas, err
}

// GetByID retrieves an idea by its ID
func (r *IdeaRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Idea, error) {
	var idea model.Idea
	result := r.db.WithContext(ctx).First(&idea, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrIdeaNotFound
		}
		return nil, result.Error
	}
	return &idea, nil
}

// Create appends an idea to the end of its column
func (r *IdeaRepository) Create(ctx context.Context, idea *model.Idea) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.Idea{}).
			Where("user_id = ? AND status = ?", idea.UserID, idea.Status).
			Count(&count).Error; err != nil {
			return err
		}
		idea.Position = int(count)
		return tx.Create(idea).Error
	})
}

// Update saves title, display title and notes. Status and position are left alone.
func (r *IdeaRepository) Update(ctx context.Context, idea *model.Idea) error {
	result := r.db.WithContext(ctx).Model(&model.Idea{}).
		Where("id = ?", idea.ID).
		Updates(map[string]any{
			"title":         idea.Title,
			"display_title": idea.DisplayTitle,
			"notes":         idea.Notes,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrIdeaNotFound
	}
	return nil
}

// Delete removes an idea by its ID
func (r *IdeaRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&model.Idea{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrIdeaNotFound
	}
	return nil
}

// ApplyOrder replaces the whole arrangement of a user's ideas in one
// transaction. The order must list every idea the user owns exactly once.
func (r *IdeaRepository) ApplyOrder(ctx context.Context, userID uuid.UUID, columns []string, order Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Lock the user's rows in id order so concurrent reorders queue
		// instead of deadlocking on each other's snapshot order.
		var owned []uuid.UUID
		if err := tx.Model(&model.Idea{}).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ?", userID).
			Order("id").
			Pluck("id", &owned).Error; err != nil {
			return err
		}
		if err := ValidateOrder(order, columns, owned); err != nil {
			return err
		}

		for _, col := range columns {
			for position, id := range order[col] {
				if err := tx.Model(&model.Idea{}).
					Where("id = ? AND user_id = ?", id, userID).
					Updates(map[string]any{"status": col, "position": position}).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// ValidateOrder checks an order against the configured columns and the
// ids the user owns.
func ValidateOrder(order Order, columns []string, owned []uuid.UUID) error {
	known := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		known[c] = struct{}{}
	}
	for col := range order {
		if _, ok := known[col]; !ok {
			return fmt.Errorf("%w: %q", ErrUnknownColumn, col)
		}
	}

	remaining := make(map[uuid.UUID]struct{}, len(owned))
	for _, id := range owned {
		remaining[id] = struct{}{}
	}
	for col, ids := range order {
		for _, id := range ids {
			if _, ok := remaining[id]; !ok {
				return fmt.Errorf("%w: %s in %q is unknown or repeated", ErrOrderMismatch, id, col)
			}
			delete(remaining, id)
		}
	}
	if len(remaining) > 0 {
		return fmt.Errorf("%w: %d ideas missing", ErrOrderMismatch, len(remaining))
	}
	return nil
}
