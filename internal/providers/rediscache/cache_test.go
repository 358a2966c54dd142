package rediscache

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitaliisemenov/selector-engine/internal/selector"
)

type staticSource struct {
	subjects []*selector.Subject
	calls    int
	err      error
}

func (s *staticSource) Subjects(ctx context.Context) ([]*selector.Subject, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.subjects, nil
}

func newTestSource(t *testing.T, inner selector.SubjectSource, ttl time.Duration) (*Source, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	config := DefaultConfig()
	config.Addr = mr.Addr()
	config.TTL = ttl

	src, err := New(inner, config, slog.Default())
	require.NoError(t, err)
	return src, mr
}

func sampleSubjects() []*selector.Subject {
	return []*selector.Subject{
		{ID: selector.StrPtr("web1"), FQDN: selector.StrPtr("web1.example.com"), Grains: map[string]any{"role": "web"}},
		{ID: selector.StrPtr("db1"), FQDN: selector.StrPtr("db1.example.com"), Grains: map[string]any{"role": "db"}},
	}
}

func TestNew_InvalidConfigIsRejected(t *testing.T) {
	_, err := New(&staticSource{}, &Config{}, slog.Default())
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestNew_FailsFastOnUnreachableRedis(t *testing.T) {
	config := DefaultConfig()
	config.Addr = "127.0.0.1:1"
	config.DialTimeout = 50 * time.Millisecond
	_, err := New(&staticSource{}, config, slog.Default())
	assert.Error(t, err)
}

func TestSubjects_MissPopulatesCacheAndHitsAvoidSource(t *testing.T) {
	inner := &staticSource{subjects: sampleSubjects()}
	src, mr := newTestSource(t, inner, time.Minute)
	defer mr.Close()

	got, err := src.Subjects(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, 1, inner.calls)

	got, err = src.Subjects(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, "web1", got[0].IDValue())
	assert.Equal(t, 1, inner.calls, "second call should be served from cache")
}

func TestSubjects_ExpiredEntryFallsBackToSource(t *testing.T) {
	inner := &staticSource{subjects: sampleSubjects()}
	src, mr := newTestSource(t, inner, time.Second)
	defer mr.Close()

	_, err := src.Subjects(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, inner.calls)

	mr.FastForward(2 * time.Second)

	_, err = src.Subjects(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
}

func TestSubjects_SourceErrorIsNotCached(t *testing.T) {
	inner := &staticSource{err: errors.New("list nodes: boom")}
	src, mr := newTestSource(t, inner, time.Minute)
	defer mr.Close()

	_, err := src.Subjects(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 1, inner.calls)

	_, err = src.Subjects(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 2, inner.calls, "a failed refresh must not be cached")
}

func TestInvalidate_ForcesNextCallToSource(t *testing.T) {
	inner := &staticSource{subjects: sampleSubjects()}
	src, mr := newTestSource(t, inner, time.Minute)
	defer mr.Close()

	_, err := src.Subjects(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, inner.calls)

	require.NoError(t, src.Invalidate(context.Background()))

	_, err = src.Subjects(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
}

func TestSubjects_CorruptCacheEntryFallsBackToSource(t *testing.T) {
	inner := &staticSource{subjects: sampleSubjects()}
	src, mr := newTestSource(t, inner, time.Minute)
	defer mr.Close()

	require.NoError(t, mr.Set(src.config.Key, "not json"))

	got, err := src.Subjects(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, 1, inner.calls)
}
