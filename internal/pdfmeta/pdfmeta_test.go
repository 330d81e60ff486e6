package pdfmeta

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdfannot/internal/testutil"
)

func TestPageCount(t *testing.T) {
	for _, pages := range []int{1, 3} {
		data := testutil.MinimalPDF(pages, "fixture")

		n, err := PageCount(bytes.NewReader(data), int64(len(data)))

		require.NoError(t, err)
		assert.Equal(t, pages, n)
	}
}

func TestPageCount_Garbage(t *testing.T) {
	data := []byte("MZ\x90\x00 definitely not a pdf")

	n, err := PageCount(bytes.NewReader(data), int64(len(data)))

	assert.Error(t, err)
	assert.Zero(t, n)
}

func TestPageCount_Empty(t *testing.T) {
	_, err := PageCount(bytes.NewReader(nil), 0)
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = PageCount(nil, 10)
	assert.ErrorIs(t, err, ErrEmpty)
}
