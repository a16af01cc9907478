package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sprintify-backend-go/internal/models"
)

func TestFindDependencyCycle(t *testing.T) {
	t.Run("acyclic", func(t *testing.T) {
		graph := map[string][]string{
			"a": {"b", "c"},
			"b": {"c"},
			"c": nil,
		}
		assert.Nil(t, FindDependencyCycle(graph))
	})

	t.Run("diamond is not a cycle", func(t *testing.T) {
		graph := map[string][]string{
			"a": {"b", "c"},
			"b": {"d"},
			"c": {"d"},
			"d": nil,
		}
		assert.Nil(t, FindDependencyCycle(graph))
	})

	t.Run("three-node cycle", func(t *testing.T) {
		graph := map[string][]string{
			"a": {"b"},
			"b": {"c"},
			"c": {"a"},
		}
		assert.Equal(t, []string{"a", "b", "c", "a"}, FindDependencyCycle(graph))
	})

	t.Run("self loop", func(t *testing.T) {
		assert.Equal(t, []string{"x", "x"}, FindDependencyCycle(map[string][]string{"x": {"x"}}))
	})

	t.Run("unknown edges ignored", func(t *testing.T) {
		assert.Nil(t, FindDependencyCycle(map[string][]string{"a": {"ghost"}}))
	})
}

func TestValidateDependencies(t *testing.T) {
	siblings := []*models.Task{
		{ID: "t1"},
		{ID: "t2", Dependencies: []string{"t1"}},
		{ID: "t3", Dependencies: []string{"t2"}},
	}

	require.NoError(t, validateDependencies("", []string{"t1", "t3"}, siblings))
	require.NoError(t, validateDependencies("t3", []string{"t1"}, siblings))

	err := validateDependencies("t1", []string{"t3"}, siblings)
	assert.ErrorIs(t, err, ErrDependencyCycle)
	assert.Contains(t, err.Error(), "t1 -> t3 -> t2 -> t1")

	assert.ErrorIs(t, validateDependencies("t2", []string{"t2"}, siblings), ErrDependencyCycle)

	err = validateDependencies("", []string{"elsewhere"}, siblings)
	assert.ErrorIs(t, err, ErrValidation)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{`Dependency "elsewhere" is not a task in this sprint`}, verr.Problems)
}
