package selector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitaliisemenov/selector-engine/internal/selectorcache"
)

func TestGlobMatch(t *testing.T) {
	cache := selectorcache.New(0)
	tests := []struct {
		pattern string
		value   string
		want    bool
	}{
		{"web*", "webA", true},
		{"web*", "db1", false},
		{"web?", "webA", true},
		{"web?", "webAA", false},
		{"web[12]", "web1", true},
		{"web[12]", "web3", false},
		{"web[!12]", "web3", true},
		{"*", "anything", true},
	}
	for _, tt := range tests {
		ok, err := globMatch(cache, tt.pattern, tt.value)
		require.NoError(t, err)
		assert.Equalf(t, tt.want, ok, "glob %q vs %q", tt.pattern, tt.value)
	}
}

func TestPCREMatch_IsAnchored(t *testing.T) {
	cache := selectorcache.New(0)
	ok, err := pcreMatch(cache, "web.*", "webA")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = pcreMatch(cache, "eb.*", "webA")
	require.NoError(t, err)
	assert.False(t, ok, "unanchored substring match must not succeed")
}

func TestGlobMatchNested_WalksLongestSuffixFirst(t *testing.T) {
	cache := selectorcache.New(0)
	data := map[string]any{
		"os":    "Ubuntu",
		"nested": map[string]any{"role": "web"},
	}
	ok, err := globMatchNested(cache, "os:Ubuntu", data, ':')
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = globMatchNested(cache, "nested:role:web", data, ':')
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = globMatchNested(cache, "os:Redhat", data, ':')
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGlobMatchNested_ListElementsTraversedElementwise(t *testing.T) {
	cache := selectorcache.New(0)
	data := map[string]any{
		"roles": []any{
			map[string]any{"name": "web"},
			map[string]any{"name": "db"},
		},
	}
	ok, err := globMatchNested(cache, "roles:name:db", data, ':')
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestGlobMatchNested_MissingDelimiterIsMalformed(t *testing.T) {
	cache := selectorcache.New(0)
	_, err := globMatchNested(cache, "noDelimiterAtAll", map[string]any{}, ':')
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedExpression)
}

func TestIPCIDRMatch(t *testing.T) {
	ok, err := ipCIDRMatch("10.0.0.0/8", []string{"10.1.2.3"})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ipCIDRMatch("10.0.0.0/8", []string{"192.168.1.1"})
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = ipCIDRMatch("192.168.1.1", []string{"192.168.1.1", "10.0.0.1"})
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = ipCIDRMatch("not-an-address", []string{"10.0.0.1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedExpression)
}
