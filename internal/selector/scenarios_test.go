package selector

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestScenario_S1_GlobMatch covers spec scenario S1: a bare glob matches
// id, and querify round-trips to the bare expr.
func TestScenario_S1_GlobMatch(t *testing.T) {
	q := NewDefaultQuery()
	r, err := q.Parse("web*")
	require.NoError(t, err)

	subject := &Subject{ID: StrPtr("webA")}
	assert.True(t, r.Match(context.Background(), q.base, subject))

	text, err := q.Querify(r)
	require.NoError(t, err)
	assert.Equal(t, "web*", text)
}

// TestScenario_S2_GrainNested covers S2: G@os:Ubuntu against a nested
// grains map.
func TestScenario_S2_GrainNested(t *testing.T) {
	q := NewDefaultQuery()
	r, err := q.Parse("G@os:Ubuntu")
	require.NoError(t, err)

	subject := &Subject{Grains: map[string]any{"os": "Ubuntu"}}
	assert.True(t, r.Match(context.Background(), q.base, subject))
}

// TestScenario_S3_CompoundNegation covers S3: negating a disjunction where
// neither disjunct holds.
func TestScenario_S3_CompoundNegation(t *testing.T) {
	q := NewDefaultQuery()
	r, err := q.Parse("not (G@bar:baz or toto)")
	require.NoError(t, err)

	subject := &Subject{ID: StrPtr("foo"), Grains: map[string]any{"bar": "bazinga"}}
	assert.True(t, r.Match(context.Background(), q.base, subject))
}

// TestScenario_S4_ListEvaluator covers S4: L@foo,bar,baz* matches via the
// third item, and the resulting rule kind is Any.
func TestScenario_S4_ListEvaluator(t *testing.T) {
	q := NewDefaultQuery()
	r, err := q.Parse("L@foo,bar,baz*")
	require.NoError(t, err)
	require.Equal(t, "any", r.Kind())

	subject := &Subject{ID: StrPtr("bazinga")}
	assert.True(t, r.Match(context.Background(), q.base, subject))
}

// TestScenario_S5_UncertainPropagation covers S5: a subject missing grains
// is retained as uncertain under filter, alongside a certain match, while a
// subject with a non-matching grain value is excluded.
func TestScenario_S5_UncertainPropagation(t *testing.T) {
	q := NewDefaultQuery()
	r, err := q.Parse("G@os:Ubuntu")
	require.NoError(t, err)

	a := &Subject{ID: StrPtr("a"), Grains: map[string]any{"os": "Ubuntu"}}
	b := &Subject{ID: StrPtr("b")}
	c := &Subject{ID: StrPtr("c"), Grains: map[string]any{"os": "Redhat"}}

	verdicts, err := r.Filter(context.Background(), q.base, []*Subject{a, b, c})
	require.NoError(t, err)
	require.Len(t, verdicts, 2)

	bySubject := map[*Subject]Verdict{}
	for _, v := range verdicts {
		bySubject[v.Subject] = v
	}
	av, ok := bySubject[a]
	require.True(t, ok)
	assert.False(t, av.Doubt)
	bv, ok := bySubject[b]
	require.True(t, ok)
	assert.True(t, bv.Doubt)
	_, excluded := bySubject[c]
	assert.False(t, excluded)
}

// TestScenario_S6_MultiWordCoalescing covers S6: a compound query with a
// multi-word pillar value and a local-store atom combined under negation.
func TestScenario_S6_MultiWordCoalescing(t *testing.T) {
	q := NewDefaultQuery()
	r, err := q.Parse("*.example.com and not (I@fullname:John Doe or D@role:web)")
	require.NoError(t, err)
	require.Equal(t, "all", r.Kind())

	all := r.(*AllRule)
	require.Len(t, all.Rules(), 2)

	var not *NotRule
	var glob *GlobRule
	for _, child := range all.Rules() {
		switch c := child.(type) {
		case *NotRule:
			not = c
		case *GlobRule:
			glob = c
		}
	}
	require.NotNil(t, not)
	require.NotNil(t, glob)
	assert.Equal(t, "*.example.com", glob.Expr())

	inner := not.Inner().(*AnyRule)
	require.Len(t, inner.Rules(), 2)
	var pillar *PillarRule
	var local *LocalStoreRule
	for _, c := range inner.Rules() {
		switch cc := c.(type) {
		case *PillarRule:
			pillar = cc
		case *LocalStoreRule:
			local = cc
		}
	}
	require.NotNil(t, pillar)
	require.NotNil(t, local)
	assert.Equal(t, "fullname:John Doe", pillar.Expr())
	assert.Equal(t, "role:web", local.Expr())
}

// TestScenario_S7_TrailingOperator covers S7: a trailing "and" is a syntax
// error.
func TestScenario_S7_TrailingOperator(t *testing.T) {
	q := NewDefaultQuery()
	_, err := q.Parse("G@foo:bar and ")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSyntax)
}
