package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdfannot/internal/model"
	"pdfannot/internal/repository"
)

func newAnnotation() *model.Annotation {
	content := "check this figure"
	return &model.Annotation{
		DocumentID:     5,
		Content:        &content,
		Type:           "highlight",
		Page:           2,
		PositionX:      10.5,
		PositionY:      20.25,
		HighlightRects: json.RawMessage(`[{"x":1,"y":2,"w":3,"h":4}]`),
		CreatedAt:      time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestAnnotationPostgres_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	a := newAnnotation()

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO annotations").
		WithArgs(a.DocumentID, *a.Content, a.Type, a.Page, a.PositionX, a.PositionY, `[{"x":1,"y":2,"w":3,"h":4}]`, a.CreatedAt).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(11), a.CreatedAt))
	mock.ExpectCommit()

	out, err := NewAnnotationPostgres(db).Create(context.Background(), a)

	require.NoError(t, err)
	assert.Equal(t, int64(11), out.ID)
	assert.Equal(t, a.Type, out.Type)
	assert.Zero(t, a.ID, "input must not be mutated")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnnotationPostgres_Create_NullOptionals(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	a := newAnnotation()
	a.Content = nil
	a.HighlightRects = json.RawMessage("null")

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO annotations").
		WithArgs(a.DocumentID, nil, a.Type, a.Page, a.PositionX, a.PositionY, nil, a.CreatedAt).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(12), a.CreatedAt))
	mock.ExpectCommit()

	out, err := NewAnnotationPostgres(db).Create(context.Background(), a)

	require.NoError(t, err)
	assert.Nil(t, out.HighlightRects)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnnotationPostgres_Create_ForeignKeyRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO annotations").
		WillReturnError(&pgconn.PgError{Code: "23503", Message: "violates foreign key constraint"})
	mock.ExpectRollback()

	out, err := NewAnnotationPostgres(db).Create(context.Background(), newAnnotation())

	assert.ErrorIs(t, err, repository.ErrReferenceMissing)
	assert.Nil(t, out)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnnotationPostgres_Create_StoreErrorRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO annotations").WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	out, err := NewAnnotationPostgres(db).Create(context.Background(), newAnnotation())

	assert.EqualError(t, err, "disk full")
	assert.NotErrorIs(t, err, repository.ErrReferenceMissing)
	assert.Nil(t, out)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnnotationPostgres_Create_CommitError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	a := newAnnotation()
	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO annotations").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(1), a.CreatedAt))
	mock.ExpectCommit().WillReturnError(errors.New("serialization failure"))

	out, err := NewAnnotationPostgres(db).Create(context.Background(), a)

	assert.ErrorContains(t, err, "commit: serialization failure")
	assert.Nil(t, out)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnnotationPostgres_Create_BeginError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin().WillReturnError(errors.New("too many connections"))

	out, err := NewAnnotationPostgres(db).Create(context.Background(), newAnnotation())

	assert.ErrorContains(t, err, "begin: too many connections")
	assert.Nil(t, out)
}

func TestAnnotationPostgres_ListByDocument(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewAnnotationPostgres(db)
	ctx := context.Background()
	cols := []string{"id", "document_id", "content", "annotation_type", "page", "position_x", "position_y", "highlight_rects", "created_at"}

	t.Run("rows", func(t *testing.T) {
		now := time.Now()
		mock.ExpectQuery("SELECT (.+) FROM annotations WHERE document_id = \\$1 ORDER BY id ASC").
			WithArgs(int64(5)).
			WillReturnRows(sqlmock.NewRows(cols).
				AddRow(int64(1), int64(5), "first", "note", int64(1), 1.5, 2.5, nil, now).
				AddRow(int64(2), int64(5), nil, "highlight", int64(3), 0.0, 0.0, `[{"x":0}]`, now))

		items, err := repo.ListByDocument(ctx, 5)

		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, "first", *items[0].Content)
		assert.Nil(t, items[0].HighlightRects)
		assert.Nil(t, items[1].Content)
		assert.JSONEq(t, `[{"x":0}]`, string(items[1].HighlightRects))
	})

	t.Run("unknown document yields empty slice", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM annotations").
			WithArgs(int64(999)).
			WillReturnRows(sqlmock.NewRows(cols))

		items, err := repo.ListByDocument(ctx, 999)

		require.NoError(t, err)
		assert.NotNil(t, items)
		assert.Empty(t, items)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
