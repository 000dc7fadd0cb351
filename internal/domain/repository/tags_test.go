package repository

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTags(t *testing.T) {
	assert.Equal(t, []string{"dp", "greedy", "图论", "math"}, ParseTags(" dp,greedy，图论  math "))
	assert.Empty(t, ParseTags(" , "))
}

func TestProcessTags(t *testing.T) {
	long := strings.Repeat("x", MaxTagLength+1)
	exact := strings.Repeat("y", MaxTagLength)
	got := ProcessTags([]string{" DP ", "dp", long, exact, "", "二分"})
	assert.Equal(t, []string{"dp", exact, "二分"}, got)

	many := make([]string, 0, 15)
	for i := 0; i < 15; i++ {
		many = append(many, string(rune('a'+i)))
	}
	assert.Len(t, ProcessTags(many), MaxTags)
	assert.NotNil(t, ProcessTags(nil))
}

func TestTagInputDecodesArrayOrString(t *testing.T) {
	var fromArray, fromString TagInput
	require.NoError(t, json.Unmarshal([]byte(`["a","b"]`), &fromArray))
	require.NoError(t, json.Unmarshal([]byte(`"a, b"`), &fromString))
	assert.Equal(t, fromArray, fromString)

	var bad TagInput
	assert.Error(t, json.Unmarshal([]byte(`42`), &bad))
}

func TestNullable(t *testing.T) {
	var v struct {
		D Nullable[int] `json:"d"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{}`), &v))
	assert.False(t, v.D.Set)

	require.NoError(t, json.Unmarshal([]byte(`{"d": null}`), &v))
	assert.True(t, v.D.Set)
	assert.Nil(t, v.D.Value)

	require.NoError(t, json.Unmarshal([]byte(`{"d": 7}`), &v))
	require.NotNil(t, v.D.Value)
	assert.Equal(t, 7, *v.D.Value)

	out, err := json.Marshal(Null[int]())
	require.NoError(t, err)
	assert.JSONEq(t, `null`, string(out))
}
