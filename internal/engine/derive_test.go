package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExprEval(t *testing.T) {
	e := newExprEvaluator()
	values := map[string]int{"camera": 100, "ads": 80}

	got, err := e.eval("turn", "camera * 1.3", values)
	require.NoError(t, err)
	assert.InDelta(t, 130, got, 1e-9)

	got, err = e.eval("mix", "Math.max(camera, ads) - ads / 2", values)
	require.NoError(t, err)
	assert.InDelta(t, 60, got, 1e-9)

	// Second call reuses the compiled program.
	_, err = e.eval("turn", "camera * 1.3", values)
	require.NoError(t, err)
	assert.Len(t, e.programs, 2)
}

func TestExprEvalFailures(t *testing.T) {
	e := newExprEvaluator()
	values := map[string]int{"camera": 100}

	tests := map[string]string{
		"syntax":       "camera *",
		"unknown name": "missing * 2",
		"non-finite":   "camera / 0",
		"require":      "require('fs')",
		"runaway":      "while (true) {}",
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := e.eval(name, src, values)
			assert.Error(t, err)
		})
	}
}
