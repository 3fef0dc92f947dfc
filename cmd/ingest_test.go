package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOrderIds(t *testing.T) {
	ids, err := parseOrderIds([]string{"42", "7"})
	require.NoError(t, err)
	assert.Equal(t, []int64{42, 7}, ids)

	for _, bad := range []string{"0", "-1", "x"} {
		_, err := parseOrderIds([]string{bad})
		assert.Error(t, err, bad)
	}
}
