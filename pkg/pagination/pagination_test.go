// Copyright (c) 2026 FourT. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package pagination

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromRequest(t *testing.T) {
	testCases := []struct {
		name          string
		query         string
		expectedPage  int
		expectedLimit int
	}{
		{name: "defaults when absent", query: "", expectedPage: 1, expectedLimit: DefaultLimit},
		{name: "explicit values", query: "page=3&limit=50", expectedPage: 3, expectedLimit: 50},
		{name: "zero page clamped", query: "page=0", expectedPage: 1, expectedLimit: DefaultLimit},
		{name: "negative page clamped", query: "page=-2", expectedPage: 1, expectedLimit: DefaultLimit},
		{name: "oversized limit falls back", query: "limit=5000", expectedPage: 1, expectedLimit: DefaultLimit},
		{name: "garbage ignored", query: "page=abc&limit=xyz", expectedPage: 1, expectedLimit: DefaultLimit},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			request := httptest.NewRequest("GET", "/?"+testCase.query, nil)
			params := FromRequest(request)
			assert.Equal(t, testCase.expectedPage, params.Page)
			assert.Equal(t, testCase.expectedLimit, params.Limit)
		})
	}
}

func TestOffset(t *testing.T) {
	assert.Equal(t, 0, Params{Page: 1, Limit: 20}.Offset())
	assert.Equal(t, 0, Params{Page: 0, Limit: 20}.Offset())
	assert.Equal(t, 20, Params{Page: 2, Limit: 20}.Offset())
	assert.Equal(t, 90, Params{Page: 10, Limit: 10}.Offset())
}

func TestNewMeta(t *testing.T) {
	meta := NewMeta(2, 20, 45)
	assert.Equal(t, 2, meta.Page)
	assert.Equal(t, 45, meta.Total)
	assert.Equal(t, 3, meta.TotalPages)

	assert.Equal(t, 0, NewMeta(1, 20, 0).TotalPages)
	assert.Equal(t, 1, NewMeta(1, 20, 20).TotalPages)
	assert.Equal(t, 0, NewMeta(1, 0, 50).TotalPages)
}
