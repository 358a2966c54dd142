package selector

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister_DuplicatePrefixIsUsageError(t *testing.T) {
	q := NewDefaultQuery()
	err := q.Register("G", "", func(expr string, _ *Options) (Rule, error) {
		return NewGlobRule(expr), nil
	}, "custom")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUsage)
}

func TestRegister_DuplicateShortcutIsUsageError(t *testing.T) {
	q := NewDefaultQuery()
	err := q.Register("Z", "grain", func(expr string, _ *Options) (Rule, error) {
		return NewGlobRule(expr), nil
	}, "custom")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUsage)
}

func TestRegister_DuplicateKindIsUsageError(t *testing.T) {
	q := NewDefaultQuery()
	err := q.Register("Z", "", func(expr string, _ *Options) (Rule, error) {
		return NewGlobRule(expr), nil
	}, "grain")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUsage)
}

func TestRegister_NewKindSucceeds(t *testing.T) {
	q := NewDefaultQuery()
	err := q.Register("Z", "zed", func(expr string, _ *Options) (Rule, error) {
		return NewGlobRule(expr), nil
	}, "zed_kind")
	require.NoError(t, err)

	r, err := q.Parse("Z@web*")
	require.NoError(t, err)
	assert.Equal(t, "glob", r.Kind()) // the factory itself still builds a GlobRule
}

func TestParseShortcut_BypassesAndOrGrammar(t *testing.T) {
	q := NewDefaultQuery()
	// Grain shortcut applied to the whole text, "and"/"or" included verbatim
	// in the key path rather than parsed as operators.
	r, err := q.ParseShortcut("grain", "roles:web and db")
	require.NoError(t, err)
	require.Equal(t, "grain", r.Kind())

	subject := &Subject{Grains: map[string]any{"roles": "web and db"}}
	assert.True(t, r.Match(context.Background(), q.base, subject))
}

func TestParseShortcut_UnknownNameIsUsageError(t *testing.T) {
	q := NewDefaultQuery()
	_, err := q.ParseShortcut("nope", "anything")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUsage)
}

func TestNodeGroupEvaluator_UnknownMacroIsError(t *testing.T) {
	q := NewDefaultQuery()
	_, err := q.Parse("N@missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownMacro)
}

func TestNodeGroupEvaluator_ResolvesMacro(t *testing.T) {
	q := NewDefaultQuery()
	r, err := q.Parse("N@webservers", WithMacros(Macros{"webservers": "web*"}))
	require.NoError(t, err)
	assert.Equal(t, "glob", r.Kind())

	subject := &Subject{ID: StrPtr("web1")}
	assert.True(t, r.Match(context.Background(), DefaultOptions(), subject))
}

func TestQuerify_RoundTripsThroughParse(t *testing.T) {
	q := NewDefaultQuery()
	r, err := q.Parse("web* and not G@os:Ubuntu")
	require.NoError(t, err)

	text, err := q.Querify(r)
	require.NoError(t, err)

	r2, err := q.Parse(text)
	require.NoError(t, err)
	assert.True(t, r.Equal(r2))
}

func TestQuerify_DefaultKindIsBareExpr(t *testing.T) {
	q := NewDefaultQuery()
	r := NewGlobRule("web*")
	text, err := q.Querify(r)
	require.NoError(t, err)
	assert.Equal(t, "web*", text)
}

func TestQuerify_NonDefaultKindGetsPrefix(t *testing.T) {
	q := NewDefaultQuery()
	r := NewGrainRule("os:Ubuntu", ':')
	text, err := q.Querify(r)
	require.NoError(t, err)
	assert.Equal(t, "G@os:Ubuntu", text)
}

func TestQuerify_CombinatorsAreParenthesizedAndJoined(t *testing.T) {
	q := NewDefaultQuery()
	r := NewAll(NewGlobRule("a"), NewAny(NewGlobRule("b"), NewGlobRule("c")))
	text, err := q.Querify(r)
	require.NoError(t, err)
	assert.Equal(t, "a and (b or c)", text)
}
