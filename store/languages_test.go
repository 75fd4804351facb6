package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZaguanLabs/livelang"
)

func TestLanguageStore_ReplaceLanguages(t *testing.T) {
	s := NewLanguageStore(newTestDB(t))
	ctx := context.Background()

	langs, err := s.Languages(ctx)
	require.NoError(t, err)
	assert.Empty(t, langs)

	want := []livelang.Language{
		{Code: "en", Label: "English", IsDefault: true, Order: 0},
		{Code: "es", Label: "Español", Order: 1},
	}
	require.NoError(t, s.ReplaceLanguages(ctx, want))

	langs, err = s.Languages(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, langs)

	require.NoError(t, s.ReplaceLanguages(ctx, []livelang.Language{
		{Code: "fr", Label: "Français", IsDefault: true, Order: 0},
	}))
	langs, err = s.Languages(ctx)
	require.NoError(t, err)
	require.Len(t, langs, 1)
	assert.Equal(t, "fr", langs[0].Code)
}

func TestLanguageStore_ReplaceRollsBack(t *testing.T) {
	s := NewLanguageStore(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, s.ReplaceLanguages(ctx, []livelang.Language{{Code: "en", Label: "English", IsDefault: true}}))

	err := s.ReplaceLanguages(ctx, []livelang.Language{
		{Code: "es", Label: "Español"},
		{Code: "es", Label: "Duplicate"},
	})
	require.Error(t, err)

	langs, err := s.Languages(ctx)
	require.NoError(t, err)
	require.Len(t, langs, 1)
	assert.Equal(t, "en", langs[0].Code)
}

func TestLanguageStore_WithRegistry(t *testing.T) {
	reg := livelang.NewLanguageRegistry(NewLanguageStore(newTestDB(t)))
	ctx := context.Background()

	_, err := reg.Add(ctx, "fr", "Français")
	require.NoError(t, err)

	codes, err := reg.Codes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"en", "es", "fr"}, codes)

	def, err := reg.Default(ctx)
	require.NoError(t, err)
	assert.Equal(t, "en", def)
}
