package types

import (
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSet_InsertOrderAndDedup(t *testing.T) {
	set := NewSet("a", "b", "a", "c")

	assert.Equal(t, 3, set.Len())
	assert.Equal(t, []string{"a", "b", "c"}, set.Array(), "insertion order preserved")
	assert.True(t, set.Exists("b"))
	assert.False(t, set.Exists("z"))
}

func TestSet_SubsetOf(t *testing.T) {
	small := NewSet("a", "b")
	big := NewSet("a", "b", "c")

	assert.True(t, small.SubsetOf(big))
	assert.False(t, big.SubsetOf(small))
}

func TestSet_JSONRoundTrip(t *testing.T) {
	set := NewSet(INCREMENTAL, FULLREFRESH)

	data, err := json.Marshal(set)
	require.NoError(t, err)
	assert.JSONEq(t, `["incremental","full_refresh"]`, string(data))

	var out Set[SyncMode]
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, set.Array(), out.Array())
}

func TestSet_NilSafety(t *testing.T) {
	var set *Set[string]
	assert.Equal(t, 0, set.Len())
	assert.False(t, set.Exists("a"))
	assert.Nil(t, set.Array())
}
