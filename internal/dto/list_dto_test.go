package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestListOptionsOffset(t *testing.T) {
	assert.Equal(t, 0, ListOptions{Page: 1, Limit: 10}.Offset())
	assert.Equal(t, 0, ListOptions{Page: 0, Limit: 10}.Offset(), "page defaults to 1")
	assert.Equal(t, 0, ListOptions{Page: -3, Limit: 10}.Offset())
	assert.Equal(t, 20, ListOptions{Page: 3, Limit: 10}.Offset())
}

func TestNewListMeta(t *testing.T) {
	meta := NewListMeta(25, ListOptions{Page: 2, Limit: 10})
	assert.Equal(t, int64(25), meta.Total)
	assert.Equal(t, 2, meta.Page)
	assert.Equal(t, 3, meta.TotalPages)

	meta = NewListMeta(30, ListOptions{Page: 1, Limit: 10})
	assert.Equal(t, 3, meta.TotalPages)

	meta = NewListMeta(0, ListOptions{Limit: 10})
	assert.Equal(t, 1, meta.Page)
	assert.Equal(t, 0, meta.TotalPages)

	meta = NewListMeta(5, ListOptions{})
	assert.Equal(t, 0, meta.TotalPages, "no limit means no page math")
}
