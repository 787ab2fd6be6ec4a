package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	p := Pagination{}.Normalize(20, 100)
	assert.Equal(t, Pagination{Page: 1, PageSize: 20}, p)

	p = Pagination{Page: 3, PageSize: 500}.Normalize(20, 100)
	assert.Equal(t, Pagination{Page: 3, PageSize: 100}, p)
	assert.Equal(t, 200, p.Offset())
	assert.Equal(t, 100, p.Limit())
}

func TestBuildPageInfo(t *testing.T) {
	p := Pagination{Page: 2, PageSize: 20}
	assert.Equal(t, PageInfo{Page: 2, PageSize: 20, Total: 41, TotalPages: 3}, BuildPageInfo(p, 41))
	assert.Equal(t, 0, BuildPageInfo(p, 0).TotalPages)
	assert.Equal(t, 2, BuildPageInfo(p, 40).TotalPages)
}
