package core

import (
	"strings"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewID_ValidPrefix(t *testing.T) {
	testCases := []struct {
		name     string
		prefix   string
		expected string
	}{
		{name: "simple prefix", prefix: "run", expected: "run"},
		{name: "uppercase prefix gets lowercased", prefix: "RUN", expected: "run"},
		{name: "prefix with leading/trailing spaces gets trimmed", prefix: "  run  ", expected: "run"},
		{name: "single character prefix", prefix: "r", expected: "r"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			id := NewID(tc.prefix)

			prefix, ulidPart, ok := strings.Cut(id, "_")
			require.True(t, ok, "ID should separate prefix and ULID with an underscore")
			assert.Equal(t, tc.expected, prefix)

			_, err := ulid.ParseStrict(ulidPart)
			assert.NoError(t, err, "ULID part should be valid")
			assert.True(t, IsValidID(id))
		})
	}
}

func TestNewID_EmptyPrefixPanics(t *testing.T) {
	assert.Panics(t, func() { NewID("") })
	assert.Panics(t, func() { NewID("   ") })
}

func TestNewID_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for range 1000 {
		id := NewID("run")
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestIsValidID(t *testing.T) {
	valid := NewID("run")
	_, ulidPart, _ := strings.Cut(valid, "_")

	testCases := []struct {
		name     string
		id       string
		expected bool
	}{
		{name: "generated id", id: valid, expected: true},
		{name: "missing prefix", id: "_" + ulidPart, expected: false},
		{name: "missing separator", id: "run" + ulidPart, expected: false},
		{name: "uppercase prefix", id: "RUN_" + ulidPart, expected: false},
		{name: "extra separator", id: "run_x_" + ulidPart, expected: false},
		{name: "short ulid", id: "run_01G0EZ1XTM", expected: false},
		{name: "empty", id: "", expected: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, IsValidID(tc.id))
		})
	}
}
