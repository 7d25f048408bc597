package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func paginationContext(query string) *gin.Context {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/api/groups?"+query, nil)
	return c
}

func TestGetPaginationParams(t *testing.T) {
	gin.SetMode(gin.TestMode)

	_, ok := GetPaginationParams(paginationContext(""))
	assert.False(t, ok)

	p, ok := GetPaginationParams(paginationContext("page=3&limit=10"))
	assert.True(t, ok)
	assert.Equal(t, PaginationParams{Page: 3, Limit: 10, Offset: 20}, p)

	p, ok = GetPaginationParams(paginationContext("limit=1000"))
	assert.True(t, ok)
	assert.Equal(t, PaginationParams{Page: 1, Limit: 20, Offset: 0}, p)

	p, ok = GetPaginationParams(paginationContext("page=-2"))
	assert.True(t, ok)
	assert.Equal(t, 1, p.Page)
}
