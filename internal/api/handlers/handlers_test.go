package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitaliisemenov/selector-engine/internal/metrics"
	"github.com/vitaliisemenov/selector-engine/internal/selector"
)

type fakeSource struct {
	subjects []*selector.Subject
	err      error
}

func (f *fakeSource) Subjects(ctx context.Context) ([]*selector.Subject, error) {
	return f.subjects, f.err
}

func testEngine(t *testing.T, subjects ...*selector.Subject) *Engine {
	t.Helper()
	return NewEngine(
		selector.NewDefaultQuery(),
		&fakeSource{subjects: subjects},
		selector.DefaultOptions(),
		metrics.New(prometheus.NewRegistry()),
		nil,
	)
}

func doJSON(t *testing.T, handler http.HandlerFunc, body any) *httptest.ResponseRecorder {
	t.Helper()
	buf, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(buf))
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestFilter_ReturnsMatchingSubjects(t *testing.T) {
	web := &selector.Subject{ID: selector.StrPtr("web1")}
	db := &selector.Subject{ID: selector.StrPtr("db1")}
	e := testEngine(t, web, db)

	rec := doJSON(t, e.Filter, FilterRequest{Expr: "web*"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp FilterResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Matched, 1)
	assert.Equal(t, "web1", resp.Matched[0].IDValue())
}

func TestFilter_IncludesUncertainWhenRequested(t *testing.T) {
	withGrain := &selector.Subject{ID: selector.StrPtr("a"), Grains: map[string]any{"role": "web"}}
	withoutGrain := &selector.Subject{ID: selector.StrPtr("b")}
	e := testEngine(t, withGrain, withoutGrain)

	rec := doJSON(t, e.Filter, FilterRequest{Expr: "G@role:web", IncludeUncertain: true})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp FilterResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Matched, 1)
	require.Len(t, resp.Uncertain, 1)
	assert.Equal(t, "b", resp.Uncertain[0].IDValue())
}

func TestFilter_SyntaxErrorIsBadRequest(t *testing.T) {
	e := testEngine(t)
	rec := doJSON(t, e.Filter, FilterRequest{Expr: "and web*"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFilter_EmptyExprIsBadRequest(t *testing.T) {
	e := testEngine(t)
	rec := doJSON(t, e.Filter, FilterRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMatch_EvaluatesSingleSubject(t *testing.T) {
	e := testEngine(t)
	rec := doJSON(t, e.Match, MatchRequest{
		Expr:    "web*",
		Subject: &selector.Subject{ID: selector.StrPtr("web1")},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp MatchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Matched)
}

func TestMatch_MissingSubjectIsBadRequest(t *testing.T) {
	e := testEngine(t)
	rec := doJSON(t, e.Match, MatchRequest{Expr: "web*"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMatch_EmptyExprIsBadRequest(t *testing.T) {
	e := testEngine(t)
	rec := doJSON(t, e.Match, MatchRequest{Subject: &selector.Subject{ID: selector.StrPtr("web1")}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQuerify_NormalizesExpression(t *testing.T) {
	e := testEngine(t)
	rec := doJSON(t, e.Querify, QuerifyRequest{Expr: "web* or web* or db*"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp QuerifyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "db* or web*", resp.Query)
}

func TestQuerify_SyntaxErrorIsBadRequest(t *testing.T) {
	e := testEngine(t)
	rec := doJSON(t, e.Querify, QuerifyRequest{Expr: "or web*"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQuerify_EmptyExprIsBadRequest(t *testing.T) {
	e := testEngine(t)
	rec := doJSON(t, e.Querify, QuerifyRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
