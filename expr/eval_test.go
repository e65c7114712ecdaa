package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustEval(t *testing.T, src string, answers any) any {
	t.Helper()
	tree, err := Parse(src, "test")
	require.NoError(t, err)
	v, err := Eval(tree, answers)
	require.NoError(t, err)
	return v
}

func TestEvalComparisons(t *testing.T) {
	answers := map[string]any{"A": "yes", "n": 3.0}

	assert.Equal(t, true, mustEval(t, `answer("A") == "yes"`, answers))
	assert.Equal(t, false, mustEval(t, `answer("A") == "no"`, answers))
	assert.Equal(t, true, mustEval(t, `answer("n") >= 3`, answers))
	assert.Equal(t, true, mustEval(t, `not (answer("A") == "no")`, answers))
	assert.Equal(t, true, mustEval(t, `answer("A") == "yes" and answer("n") < 10`, answers))
	assert.Equal(t, true, mustEval(t, `answer("missing") == null`, answers))
	assert.Equal(t, false, mustEval(t, `answer("missing") == "x"`, answers))
}

func TestEvalMismatchedTypes(t *testing.T) {
	answers := map[string]any{"A": "yes"}
	assert.Equal(t, false, mustEval(t, `answer("A") == 1`, answers))
	assert.Equal(t, true, mustEval(t, `answer("A") != 1`, answers))
}

func TestIsSet(t *testing.T) {
	answers := map[string]any{"nested": map[string]any{"x": 1.0}}
	assert.Equal(t, true, mustEval(t, `is_set("nested.x")`, answers))
	assert.Equal(t, false, mustEval(t, `is_set("nested.y")`, answers))
	assert.Equal(t, false, mustEval(t, `is_set("missing")`, answers))
}

func TestResolveVisibilityPolicies(t *testing.T) {
	answers := map[string]any{}

	v, err := ResolveVisibility(`answer("A") == "yes"`, answers, OnMissingVisible)
	require.NoError(t, err)
	assert.False(t, v) // the missing answer reads as null: a clean false, not a policy outcome

	_, err = ResolveVisibility(`bogus(`, answers, OnMissingVisible)
	require.NoError(t, err)

	v, err = ResolveVisibility(`bogus(`, answers, OnMissingHidden)
	require.NoError(t, err)
	assert.False(t, v)

	_, err = ResolveVisibility(`bogus(`, answers, OnMissingError)
	require.Error(t, err)
}

func TestResolveVisibilityEmpty(t *testing.T) {
	v, err := ResolveVisibility("", nil, OnMissingError)
	require.NoError(t, err)
	assert.True(t, v)
}
