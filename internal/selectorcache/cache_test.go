package selectorcache

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_MissThenHit(t *testing.T) {
	c := New(0)
	calls := 0
	compile := func() (*regexp.Regexp, error) {
		calls++
		return regexp.Compile("^a$")
	}

	re1, err := c.Glob("a", compile)
	require.NoError(t, err)
	re2, err := c.Glob("a", compile)
	require.NoError(t, err)

	assert.Same(t, re1, re2)
	assert.Equal(t, 1, calls)

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(1), stats.Hits)
}

func TestCache_Len_TracksEachBucketSeparately(t *testing.T) {
	c := New(0)
	compile := func() (*regexp.Regexp, error) { return regexp.Compile("^a$") }

	_, err := c.Glob("a", compile)
	require.NoError(t, err)
	_, err = c.Glob("b", compile)
	require.NoError(t, err)
	_, err = c.PCRE("a", compile)
	require.NoError(t, err)

	globs, pcres := c.Len()
	assert.Equal(t, 2, globs)
	assert.Equal(t, 1, pcres)
}

func TestCache_Len_NilCacheIsZero(t *testing.T) {
	var c *Cache
	globs, pcres := c.Len()
	assert.Equal(t, 0, globs)
	assert.Equal(t, 0, pcres)
}

func TestCache_GlobAndPCREAreSeparateBuckets(t *testing.T) {
	c := New(0)
	compile := func() (*regexp.Regexp, error) { return regexp.Compile("^a$") }

	_, err := c.Glob("a", compile)
	require.NoError(t, err)
	_, err = c.PCRE("a", compile)
	require.NoError(t, err)

	stats := c.Stats()
	assert.Equal(t, int64(2), stats.Misses)
	assert.Equal(t, int64(0), stats.Hits)
}

func TestCache_CompileErrorIsNotCached(t *testing.T) {
	c := New(0)
	calls := 0
	failing := func() (*regexp.Regexp, error) {
		calls++
		return nil, assert.AnError
	}

	_, err := c.Glob("bad", failing)
	require.Error(t, err)
	_, err = c.Glob("bad", failing)
	require.Error(t, err)
	assert.Equal(t, 2, calls, "a failed compile must not be memoized")
}

func TestCache_NilCachePassesThroughWithoutPanicking(t *testing.T) {
	var c *Cache
	calls := 0
	compile := func() (*regexp.Regexp, error) {
		calls++
		return regexp.Compile("^a$")
	}

	_, err := c.Glob("a", compile)
	require.NoError(t, err)
	_, err = c.Glob("a", compile)
	require.NoError(t, err)

	assert.Equal(t, 2, calls, "nil cache must recompile every call")
	assert.Equal(t, StatsSnapshot{}, c.Stats())
}

func TestNew_NonPositiveSizeFallsBackToDefault(t *testing.T) {
	c := New(-1)
	require.NotNil(t, c)
	_, err := c.Glob("a", func() (*regexp.Regexp, error) { return regexp.Compile("^a$") })
	require.NoError(t, err)
}
