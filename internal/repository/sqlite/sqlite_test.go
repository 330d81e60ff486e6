package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdfannot/internal/model"
	"pdfannot/internal/repository"
	"pdfannot/internal/testutil"
)

func seedDocument(t *testing.T, repo *DocumentSQLite, name string, pages *int) *model.Document {
	t.Helper()
	doc, err := repo.Upsert(context.Background(), &model.Document{
		Filename:    name,
		StoragePath: "uploads/" + name,
		UploadDate:  time.Now().UTC(),
		PageCount:   pages,
	})
	require.NoError(t, err)
	return doc
}

func TestDocumentSQLite_UpsertAndFind(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewDocumentSQLite(db)
	ctx := context.Background()

	pages := 4
	doc := seedDocument(t, repo, "report.pdf", &pages)
	assert.Positive(t, doc.ID)
	require.NotNil(t, doc.PageCount)
	assert.Equal(t, 4, *doc.PageCount)
	assert.Nil(t, doc.UserID)

	byID, err := repo.FindByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "report.pdf", byID.Filename)
	assert.Equal(t, "uploads/report.pdf", byID.StoragePath)

	byName, err := repo.FindByFilename(ctx, "report.pdf")
	require.NoError(t, err)
	assert.Equal(t, doc.ID, byName.ID)
}

func TestDocumentSQLite_UpsertReplacesSameFilename(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewDocumentSQLite(db)
	ctx := context.Background()

	one := 1
	first := seedDocument(t, repo, "same.pdf", &one)

	later := time.Now().UTC().Add(time.Hour)
	second, err := repo.Upsert(ctx, &model.Document{
		Filename:    "same.pdf",
		StoragePath: "uploads/v2/same.pdf",
		UploadDate:  later,
	})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "uploads/v2/same.pdf", second.StoragePath)
	assert.Nil(t, second.PageCount)
	assert.WithinDuration(t, later, second.UploadDate, time.Second)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestDocumentSQLite_NotFound(t *testing.T) {
	repo := NewDocumentSQLite(testutil.NewSQLiteDB(t))

	_, err := repo.FindByID(context.Background(), 99)
	assert.ErrorIs(t, err, sql.ErrNoRows)

	_, err = repo.FindByFilename(context.Background(), "nope.pdf")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestDocumentSQLite_ListOrdersByID(t *testing.T) {
	repo := NewDocumentSQLite(testutil.NewSQLiteDB(t))

	empty, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	a := seedDocument(t, repo, "b.pdf", nil)
	b := seedDocument(t, repo, "a.pdf", nil)

	list, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []model.DocumentSummary{
		{ID: a.ID, Filename: "b.pdf"},
		{ID: b.ID, Filename: "a.pdf"},
	}, list)
}

func TestAnnotationSQLite_CreateAndList(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	docs := NewDocumentSQLite(db)
	repo := NewAnnotationSQLite(db)
	ctx := context.Background()

	doc := seedDocument(t, docs, "notes.pdf", nil)
	content := "look here"

	in := []*model.Annotation{
		{
			DocumentID:     doc.ID,
			Content:        &content,
			Type:           "highlight",
			Page:           1,
			PositionX:      12.5,
			PositionY:      99.75,
			HighlightRects: json.RawMessage(`[{"x":1,"y":2,"width":3,"height":4}]`),
			CreatedAt:      time.Now().UTC(),
		},
		{
			DocumentID: doc.ID,
			Type:       "note",
			Page:       2,
			CreatedAt:  time.Now().UTC(),
		},
	}

	var ids []int64
	for _, a := range in {
		out, err := repo.Create(ctx, a)
		require.NoError(t, err)
		ids = append(ids, out.ID)
	}
	assert.Less(t, ids[0], ids[1])

	got, err := repo.ListByDocument(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, ids[0], got[0].ID)
	assert.Equal(t, doc.ID, got[0].DocumentID)
	require.NotNil(t, got[0].Content)
	assert.Equal(t, "look here", *got[0].Content)
	assert.Equal(t, "highlight", got[0].Type)
	assert.Equal(t, 1, got[0].Page)
	assert.Equal(t, 12.5, got[0].PositionX)
	assert.Equal(t, 99.75, got[0].PositionY)
	assert.JSONEq(t, `[{"x":1,"y":2,"width":3,"height":4}]`, string(got[0].HighlightRects))

	assert.Nil(t, got[1].Content)
	assert.Nil(t, got[1].HighlightRects)
}

func TestAnnotationSQLite_MissingDocument(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewAnnotationSQLite(db)
	ctx := context.Background()

	out, err := repo.Create(ctx, &model.Annotation{DocumentID: 404, Type: "note", Page: 1, CreatedAt: time.Now()})

	assert.ErrorIs(t, err, repository.ErrReferenceMissing)
	assert.Nil(t, out)

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM annotations`).Scan(&n))
	assert.Zero(t, n)
}

func TestAnnotationSQLite_ListUnknownDocument(t *testing.T) {
	repo := NewAnnotationSQLite(testutil.NewSQLiteDB(t))

	got, err := repo.ListByDocument(context.Background(), 12345)

	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
