package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"notesapi/internal/cache"
	apperrors "notesapi/internal/errors"
	"notesapi/internal/model"
	"notesapi/internal/repository"
)

const noteCacheTTL = 5 * time.Minute

// NoteUpdate carries the optional fields of a partial note update. A nil
// field means "leave unchanged".
type NoteUpdate struct {
	Title    *string
	Content  *string
	IsPublic *bool
}

// NoteService enforces who may read, list, create, modify or delete a note.
//
// Reads resolve ownership before the public fallback; writes require
// ownership, full stop. A private note owned by someone else is reported as
// missing, never as forbidden, so non-owners cannot probe for its existence.
type NoteService interface {
	CreateNote(ctx context.Context, ownerID uint, title, content string, isPublic bool) (*model.Note, error)
	GetNote(ctx context.Context, requesterID, noteID uint) (*model.Note, error)
	ListNotes(ctx context.Context, ownerID uint, skip, limit int) ([]model.Note, error)
	ListPublicNotes(ctx context.Context, skip, limit int) ([]model.Note, error)
	UpdateNote(ctx context.Context, requesterID, noteID uint, update NoteUpdate) (*model.Note, error)
	DeleteNote(ctx context.Context, requesterID, noteID uint) error
}

type noteService struct {
	noteRepo repository.NoteRepository
	cache    *cache.Client
}

// NewNoteService builds a NoteService with repository and cache.
func NewNoteService(noteRepo repository.NoteRepository, cache *cache.Client) NoteService {
	return &noteService{noteRepo: noteRepo, cache: cache}
}

// refreshCache mirrors a note's committed state into the cache: a public
// note is stored fresh, anything else evicts the entry. Only the write path
// touches the cache this way, so readers can never resurrect an entry a
// concurrent mutation just removed.
func (s *noteService) refreshCache(ctx context.Context, note *model.Note) {
	if !note.IsPublic {
		_ = s.cache.Delete(ctx, cache.NoteKey(note.ID))
		return
	}
	if payload, err := json.Marshal(note); err == nil {
		_ = s.cache.Set(ctx, cache.NoteKey(note.ID), payload, noteCacheTTL)
	}
}

// CreateNote persists a new note. The owner is always the caller; there is
// no way to create a note on someone else's behalf.
func (s *noteService) CreateNote(ctx context.Context, ownerID uint, title, content string, isPublic bool) (*model.Note, error) {
	note := &model.Note{
		Title:    title,
		Content:  content,
		IsPublic: isPublic,
		OwnerID:  ownerID,
	}
	if err := s.noteRepo.Create(ctx, note); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || errors.Is(err, gorm.ErrForeignKeyViolated) {
			return nil, apperrors.ErrWriteConflict
		}
		return nil, fmt.Errorf("create note: %w", err)
	}
	s.refreshCache(ctx, note)
	return note, nil
}

// GetNote resolves a note for reading: the requester's own note first, then
// the public fallback.
func (s *noteService) GetNote(ctx context.Context, requesterID, noteID uint) (*model.Note, error) {
	note, err := s.noteRepo.FindOwned(ctx, noteID, requesterID)
	if err == nil {
		return note, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("find note: %w", err)
	}

	if data, _ := s.cache.Get(ctx, cache.NoteKey(noteID)); data != nil {
		var cached model.Note
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, nil
		}
	}

	// No cache fill here. A read that populated the cache could land after
	// the eviction of a concurrent visibility flip and serve a note that is
	// no longer public; keeping the fill on the write path makes that
	// interleaving impossible.
	note, err = s.noteRepo.FindPublic(ctx, noteID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNoteNotFound
		}
		return nil, fmt.Errorf("find public note: %w", err)
	}
	return note, nil
}

func (s *noteService) ListNotes(ctx context.Context, ownerID uint, skip, limit int) ([]model.Note, error) {
	return s.noteRepo.ListByOwner(ctx, ownerID, skip, limit)
}

func (s *noteService) ListPublicNotes(ctx context.Context, skip, limit int) ([]model.Note, error) {
	return s.noteRepo.ListPublic(ctx, skip, limit)
}

// UpdateNote applies only the supplied fields to a note the requester owns.
// Resolution and write share one transaction so a constraint failure leaves
// nothing half-applied.
func (s *noteService) UpdateNote(ctx context.Context, requesterID, noteID uint, update NoteUpdate) (*model.Note, error) {
	var updated *model.Note
	err := s.noteRepo.WithTransaction(ctx, func(ctx context.Context, repo repository.NoteRepository) error {
		note, err := repo.FindOwned(ctx, noteID, requesterID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrNoteNotFound
			}
			return fmt.Errorf("find note: %w", err)
		}

		if update.Title != nil {
			note.Title = *update.Title
		}
		if update.Content != nil {
			note.Content = *update.Content
		}
		if update.IsPublic != nil {
			note.IsPublic = *update.IsPublic
		}

		if err := repo.Update(ctx, note); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperrors.ErrWriteConflict
			}
			return fmt.Errorf("update note: %w", err)
		}
		updated = note
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.refreshCache(ctx, updated)
	return updated, nil
}

// DeleteNote removes a note the requester owns. A repeated delete reports
// the note as missing, same as a note that never existed.
func (s *noteService) DeleteNote(ctx context.Context, requesterID, noteID uint) error {
	err := s.noteRepo.WithTransaction(ctx, func(ctx context.Context, repo repository.NoteRepository) error {
		note, err := repo.FindOwned(ctx, noteID, requesterID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrNoteNotFound
			}
			return fmt.Errorf("find note: %w", err)
		}
		if err := repo.Delete(ctx, note); err != nil {
			return fmt.Errorf("delete note: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	_ = s.cache.Delete(ctx, cache.NoteKey(noteID))
	return nil
}
