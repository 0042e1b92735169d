package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsletter-backend/models"
)

type item struct {
	URL   string
	Label string
}

func urls(items []models.ArticleCandidate) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.URL)
	}
	return out
}

func TestDedupeByKey_Attr(t *testing.T) {
	t.Run("keeps first occurrence in order", func(t *testing.T) {
		in := []models.ArticleCandidate{
			{URL: "a", Title: "first a", Source: models.SourceNewsAPI},
			{URL: "b", Title: "first b"},
			{URL: "a", Title: "second a", Source: models.SourceFirecrawl},
			{URL: "c"},
			{URL: "b", Title: "second b"},
		}

		out, err := DedupeByKey(in, nil, "url")

		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "c"}, urls(out))
		assert.Equal(t, "first a", out[0].Title)
		assert.Equal(t, models.SourceNewsAPI, out[0].Source)
		assert.Equal(t, "first b", out[1].Title)
	})

	t.Run("resolves Go field name", func(t *testing.T) {
		in := []item{{URL: "x", Label: "1"}, {URL: "x", Label: "2"}, {URL: "y"}}

		out, err := DedupeByKey(in, nil, "URL")

		require.NoError(t, err)
		assert.Equal(t, []item{{URL: "x", Label: "1"}, {URL: "y"}}, out)
	})

	t.Run("works on pointers and maps", func(t *testing.T) {
		ptrs := []*item{{URL: "x"}, {URL: "x"}}
		out, err := DedupeByKey(ptrs, nil, "url")
		require.NoError(t, err)
		assert.Len(t, out, 1)

		maps := []map[string]any{{"url": "x"}, {"url": "y"}, {"url": "x"}}
		mout, err := DedupeByKey(maps, nil, "url")
		require.NoError(t, err)
		assert.Len(t, mout, 2)
	})

	t.Run("unknown attribute is invalid", func(t *testing.T) {
		_, err := DedupeByKey([]item{{URL: "x"}}, nil, "missing")

		require.Error(t, err)
		assert.ErrorIs(t, err, models.ErrInvalidArgument)
	})

	t.Run("empty input", func(t *testing.T) {
		out, err := DedupeByKey([]item{}, nil, "url")

		require.NoError(t, err)
		assert.Empty(t, out)
	})
}

func TestDedupeByKey_Keys(t *testing.T) {
	t.Run("pairs keys positionally", func(t *testing.T) {
		in := []string{"one", "two", "three", "four"}
		keys := []string{"k1", "k2", "k1", "k3"}

		out, err := DedupeByKey(in, keys, "")

		require.NoError(t, err)
		assert.Equal(t, []string{"one", "two", "four"}, out)
	})

	t.Run("keys win over attr", func(t *testing.T) {
		in := []item{{URL: "same"}, {URL: "same"}}

		out, err := DedupeByKey(in, []string{"a", "b"}, "url")

		require.NoError(t, err)
		assert.Len(t, out, 2)
	})

	t.Run("fewer keys than items truncates", func(t *testing.T) {
		in := []string{"one", "two", "three", "four"}

		out, err := DedupeByKey(in, []string{"a", "b"}, "")

		require.NoError(t, err)
		assert.Equal(t, []string{"one", "two"}, out)
	})

	t.Run("more keys than items ignores the extra keys", func(t *testing.T) {
		out, err := DedupeByKey([]string{"one"}, []string{"a", "b", "c"}, "")

		require.NoError(t, err)
		assert.Equal(t, []string{"one"}, out)
	})

	t.Run("empty keys yield nothing", func(t *testing.T) {
		out, err := DedupeByKey([]string{"one"}, []string{}, "")

		require.NoError(t, err)
		assert.Empty(t, out)
	})
}

func TestDedupeByKey_NeitherKeysNorAttr(t *testing.T) {
	_, err := DedupeByKey([]string{"a"}, nil, "")

	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrInvalidArgument)
}

func TestDedupe_Idempotent(t *testing.T) {
	in := []models.ArticleCandidate{{URL: "a"}, {URL: "b"}, {URL: "a"}, {URL: "c"}, {URL: "c"}}

	once, err := DedupeByKey(in, nil, "url")
	require.NoError(t, err)
	twice, err := DedupeByKey(once, nil, "url")
	require.NoError(t, err)

	assert.Equal(t, once, twice)
	assert.Equal(t, once, Dedupe(once, func(a models.ArticleCandidate) string { return a.URL }))
}

func TestDedupe_KeyFunc(t *testing.T) {
	in := []int{1, 2, 3, 4, 5, 6}

	out := Dedupe(in, func(n int) string {
		if n%2 == 0 {
			return "even"
		}
		return "odd"
	})

	assert.Equal(t, []int{1, 2}, out)
}
