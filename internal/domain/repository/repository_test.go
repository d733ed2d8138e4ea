package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPagination_Clamps(t *testing.T) {
	p := NewPagination(0, 500)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 100, p.PageSize)
	assert.Equal(t, 0, p.Offset())

	p = NewPagination(3, 0)
	assert.Equal(t, 20, p.PageSize)
	assert.Equal(t, 40, p.Offset())
	assert.Equal(t, 20, p.Limit())
}

func TestNewPagedResult_TotalPages(t *testing.T) {
	r := NewPagedResult([]int{1, 2}, 41, NewPagination(1, 20))
	assert.Equal(t, 3, r.TotalPages)

	r = NewPagedResult([]int{}, 40, NewPagination(2, 20))
	assert.Equal(t, 2, r.TotalPages)
}
