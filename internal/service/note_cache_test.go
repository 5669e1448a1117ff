package service

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"notesapi/internal/cache"
	apperrors "notesapi/internal/errors"
	"notesapi/internal/model"
	"notesapi/internal/repository"
)

func newCachedNoteService(t *testing.T) (NoteService, repository.NoteRepository, *miniredis.Miniredis) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.User{}, &model.Note{}))

	owner := &model.User{Email: "o@example.com", Username: "owner", PasswordHash: "x", Active: true}
	require.NoError(t, db.Create(owner).Error)

	redis := miniredis.RunT(t)
	client := cache.New(redis.Addr(), "", 0)
	t.Cleanup(func() { _ = client.Close() })

	noteRepo := repository.NewNoteRepository(db)
	return NewNoteService(noteRepo, client), noteRepo, redis
}

func TestNoteCache_ReadDoesNotPopulate(t *testing.T) {
	svc, noteRepo, redis := newCachedNoteService(t)
	ctx := context.Background()

	// Insert through the repository so the write path never touches the
	// cache; only the subsequent read could.
	note := &model.Note{Title: "t", Content: "c", IsPublic: true, OwnerID: 1}
	require.NoError(t, noteRepo.Create(ctx, note))

	got, err := svc.GetNote(ctx, 99, note.ID)
	assert.NoError(t, err)
	assert.Equal(t, "t", got.Title)

	assert.False(t, redis.Exists(cache.NoteKey(note.ID)))
}

func TestNoteCache_CreatePopulatesOnlyPublic(t *testing.T) {
	svc, _, redis := newCachedNoteService(t)
	ctx := context.Background()

	pub, err := svc.CreateNote(ctx, 1, "shared", "c", true)
	assert.NoError(t, err)
	assert.True(t, redis.Exists(cache.NoteKey(pub.ID)))

	priv, err := svc.CreateNote(ctx, 1, "draft", "c", false)
	assert.NoError(t, err)
	assert.False(t, redis.Exists(cache.NoteKey(priv.ID)))
}

func TestNoteCache_VisibilityFlipEvictsImmediately(t *testing.T) {
	svc, _, redis := newCachedNoteService(t)
	ctx := context.Background()

	note, err := svc.CreateNote(ctx, 1, "shared", "c", true)
	require.NoError(t, err)

	_, err = svc.GetNote(ctx, 99, note.ID)
	assert.NoError(t, err)

	private := false
	_, err = svc.UpdateNote(ctx, 1, note.ID, NoteUpdate{IsPublic: &private})
	assert.NoError(t, err)

	// The entry must be gone the moment the flip commits; a later read may
	// not find a stale public copy.
	assert.False(t, redis.Exists(cache.NoteKey(note.ID)))

	_, err = svc.GetNote(ctx, 99, note.ID)
	assert.ErrorIs(t, err, apperrors.ErrNoteNotFound)
}

func TestNoteCache_PublicUpdateRefreshesEntry(t *testing.T) {
	svc, _, redis := newCachedNoteService(t)
	ctx := context.Background()

	note, err := svc.CreateNote(ctx, 1, "v1", "c", true)
	require.NoError(t, err)

	title := "v2"
	_, err = svc.UpdateNote(ctx, 1, note.ID, NoteUpdate{Title: &title})
	assert.NoError(t, err)

	raw, err := redis.Get(cache.NoteKey(note.ID))
	assert.NoError(t, err)
	assert.Contains(t, raw, `"v2"`)

	got, err := svc.GetNote(ctx, 99, note.ID)
	assert.NoError(t, err)
	assert.Equal(t, "v2", got.Title)
}

func TestNoteCache_DeleteEvicts(t *testing.T) {
	svc, _, redis := newCachedNoteService(t)
	ctx := context.Background()

	note, err := svc.CreateNote(ctx, 1, "t", "c", true)
	require.NoError(t, err)
	require.True(t, redis.Exists(cache.NoteKey(note.ID)))

	assert.NoError(t, svc.DeleteNote(ctx, 1, note.ID))
	assert.False(t, redis.Exists(cache.NoteKey(note.ID)))

	_, err = svc.GetNote(ctx, 99, note.ID)
	assert.ErrorIs(t, err, apperrors.ErrNoteNotFound)
}
