package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_Suggest(t *testing.T) {
	e := newTestEngine(t, corpus()...)

	got, err := e.Suggest("can", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"Can Dogs Eat Grapes", "Can Cats Eat Grapes"}, got)

	got, err = e.Suggest("EAT", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"Can Dogs Eat Grapes", "Can Cats Eat Grapes", "How Much Hay Should A Rabbit Eat"}, got)

	got, err = e.Suggest("grapes", 1)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = e.Suggest("c", 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestEngine_SuggestPrefixFirst(t *testing.T) {
	e := newTestEngine(t,
		doc{"cat", "Cats", "a.md", "---\ntitle: Why Do Cats Purr\n---\n"},
		doc{"cat", "Cats", "b.md", "---\ntitle: Cats And Catnip\n---\n"},
	)
	got, err := e.Suggest("cats", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"Cats And Catnip", "Why Do Cats Purr"}, got)
}

func TestEngine_Popular(t *testing.T) {
	e := newTestEngine(t, corpus()...)

	got, err := e.Popular("", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"How Much Hay Should A Rabbit Eat",
		"Can Dogs Eat Grapes",
		"Can Cats Eat Grapes",
	}, got)

	got, err = e.Popular("CAT", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"Can Cats Eat Grapes"}, got)

	got, err = e.Popular("", 1)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
