package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculate(t *testing.T) {
	cases := []struct {
		page, size    int
		offset, limit int
	}{
		{1, 10, 0, 10},
		{3, 10, 20, 10},
		{0, 10, 0, 10},
		{2, 0, 20, 20},
		{1, 500, 0, 20},
	}
	for _, tc := range cases {
		offset, limit := Calculate(tc.page, tc.size)
		assert.Equal(t, tc.offset, offset, "page %d size %d", tc.page, tc.size)
		assert.Equal(t, tc.limit, limit, "page %d size %d", tc.page, tc.size)
	}
}

func TestParseIntDefault(t *testing.T) {
	assert.Equal(t, 5, ParseIntDefault("", 5))
	assert.Equal(t, 5, ParseIntDefault("five", 5))
	assert.Equal(t, 7, ParseIntDefault("7", 5))
}
