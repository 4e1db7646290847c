package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTags(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"nil", nil, []string{}},
		{"unique", []string{"a", "b"}, []string{"a", "b"}},
		{"duplicates keep first", []string{"b", "a", "b", "a"}, []string{"b", "a"}},
		{"empty dropped", []string{"", "x", ""}, []string{"x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeTags(tt.in))
		})
	}
}

func TestPermissionGrants(t *testing.T) {
	var g PermissionGrants
	assert.False(t, g.Has("p"))

	g.Add("p")
	g.Add("p")
	assert.True(t, g.Has("p"))
	assert.Len(t, g.Granted, 1)

	g.Revoke("p")
	assert.False(t, g.Has("p"))

	var nilGrants *PermissionGrants
	assert.False(t, nilGrants.Has("p"))
}
