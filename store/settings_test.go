package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZaguanLabs/livelang"
)

func TestSettingsStore_Defaults(t *testing.T) {
	s := NewSettingsStore(newTestDB(t))

	got, err := s.Settings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, livelang.DefaultSettings(), got)
}

func TestSettingsStore_SaveAndLoad(t *testing.T) {
	s := NewSettingsStore(newTestDB(t))
	ctx := context.Background()

	want := livelang.Settings{
		Enabled:          false,
		AllowedRoles:     []string{"editor", "translator"},
		TranslateNumbers: true,
	}
	require.NoError(t, s.SaveSettings(ctx, want))

	got, err := s.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// Saving again overwrites rather than duplicating.
	want.AllowedRoles = []string{" all ", ""}
	require.NoError(t, s.SaveSettings(ctx, want))

	got, err = s.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"all"}, got.AllowedRoles)

	var n int
	require.NoError(t, s.db.Get(&n, `SELECT COUNT(*) FROM livelang_settings`))
	assert.Equal(t, 3, n)
}

func TestParseFlag(t *testing.T) {
	tests := []struct {
		in       string
		fallback bool
		want     bool
	}{
		{"1", false, true},
		{"0", true, false},
		{"true", false, true},
		{" false ", true, false},
		{"maybe", true, true},
		{"", false, false},
	}

	for _, tt := range tests {
		if got := parseFlag(tt.in, tt.fallback); got != tt.want {
			t.Errorf("parseFlag(%q, %v) = %v, want %v", tt.in, tt.fallback, got, tt.want)
		}
	}
}
