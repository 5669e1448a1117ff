package repository

import (
	"context"

	"gorm.io/gorm"

	"notesapi/internal/model"
)

// NoteRepository defines note persistence operations. The owner/public
// predicates live here so callers cannot accidentally widen a query.
type NoteRepository interface {
	Create(ctx context.Context, note *model.Note) error
	Update(ctx context.Context, note *model.Note) error
	Delete(ctx context.Context, note *model.Note) error
	// FindOwned returns the note only if it belongs to ownerID.
	FindOwned(ctx context.Context, id, ownerID uint) (*model.Note, error)
	// FindPublic returns the note only if it is public.
	FindPublic(ctx context.Context, id uint) (*model.Note, error)
	ListByOwner(ctx context.Context, ownerID uint, skip, limit int) ([]model.Note, error)
	ListPublic(ctx context.Context, skip, limit int) ([]model.Note, error)
	// WithTransaction runs fn against a repository bound to a single
	// transaction; any error rolls the whole unit of work back.
	WithTransaction(ctx context.Context, fn func(ctx context.Context, repo NoteRepository) error) error
}

type noteRepository struct {
	db *gorm.DB
}

// NewNoteRepository builds a GORM-backed repository.
func NewNoteRepository(db *gorm.DB) NoteRepository {
	return &noteRepository{db: db}
}

func (r *noteRepository) Create(ctx context.Context, note *model.Note) error {
	return r.db.WithContext(ctx).Create(note).Error
}

func (r *noteRepository) Update(ctx context.Context, note *model.Note) error {
	return r.db.WithContext(ctx).Save(note).Error
}

func (r *noteRepository) Delete(ctx context.Context, note *model.Note) error {
	return r.db.WithContext(ctx).Delete(note).Error
}

func (r *noteRepository) FindOwned(ctx context.Context, id, ownerID uint) (*model.Note, error) {
	var note model.Note
	if err := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&note).Error; err != nil {
		return nil, err
	}
	return &note, nil
}

func (r *noteRepository) FindPublic(ctx context.Context, id uint) (*model.Note, error) {
	var note model.Note
	if err := r.db.WithContext(ctx).
		Where("id = ? AND is_public = ?", id, true).
		First(&note).Error; err != nil {
		return nil, err
	}
	return &note, nil
}

// ListByOwner returns the owner's notes in creation order (id ASC) so
// pagination is stable across requests.
func (r *noteRepository) ListByOwner(ctx context.Context, ownerID uint, skip, limit int) ([]model.Note, error) {
	var notes []model.Note
	if err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("id ASC").
		Offset(skip).Limit(limit).
		Find(&notes).Error; err != nil {
		return nil, err
	}
	return notes, nil
}

// ListPublic returns public notes across all owners in creation order.
func (r *noteRepository) ListPublic(ctx context.Context, skip, limit int) ([]model.Note, error) {
	var notes []model.Note
	if err := r.db.WithContext(ctx).
		Where("is_public = ?", true).
		Order("id ASC").
		Offset(skip).Limit(limit).
		Find(&notes).Error; err != nil {
		return nil, err
	}
	return notes, nil
}

func (r *noteRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context, repo NoteRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := &noteRepository{db: tx}
		return fn(ctx, txRepo)
	})
}
