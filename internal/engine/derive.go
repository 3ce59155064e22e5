package engine

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/dop251/goja"

	"github.com/MJE43/redsettings-go/internal/games"
)

const exprTimeout = 100 * time.Millisecond

// exprEvaluator runs derived-field expressions in a fresh goja runtime per call.
// Compiled programs are cached by source.
type exprEvaluator struct {
	mu       sync.Mutex
	programs map[string]*goja.Program
}

func newExprEvaluator() *exprEvaluator {
	return &exprEvaluator{programs: make(map[string]*goja.Program)}
}

func (e *exprEvaluator) program(field, src string) (*goja.Program, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if p, ok := e.programs[src]; ok {
		return p, nil
	}
	p, err := goja.Compile(field, src, true)
	if err != nil {
		return nil, err
	}
	e.programs[src] = p
	return p, nil
}

// eval binds every value produced so far and evaluates the expression.
func (e *exprEvaluator) eval(field, src string, values map[string]int) (float64, error) {
	prog, err := e.program(field, src)
	if err != nil {
		return 0, fmt.Errorf("compile %s: %w", field, err)
	}

	vm := goja.New()
	for _, name := range []string{"require", "fetch", "XMLHttpRequest", "eval", "Function"} {
		vm.Set(name, goja.Undefined())
	}
	for name, v := range values {
		if err := vm.Set(name, v); err != nil {
			return 0, fmt.Errorf("bind %s: %w", name, err)
		}
	}

	timer := time.AfterFunc(exprTimeout, func() {
		vm.Interrupt(fmt.Sprintf("expression %s timed out", field))
	})
	defer timer.Stop()

	out, err := vm.RunProgram(prog)
	if err != nil {
		return 0, fmt.Errorf("evaluate %s: %w", field, err)
	}
	f := out.ToFloat()
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("evaluate %s: non-finite result", field)
	}
	return f, nil
}

// derive fills every derived field in declaration order.
func (g *Generator) derive(s *games.Schema, values map[string]int) error {
	for _, d := range s.Derived {
		f, _ := s.Field(d.Field)
		var raw float64
		if d.Expr != "" {
			v, err := g.exprs.eval(d.Field, d.Expr, values)
			if err != nil {
				return fmt.Errorf("engine: %s: %w", s.ID, err)
			}
			raw = v
		} else {
			raw = float64(values[d.Source]) * d.Ratio
		}
		values[d.Field] = f.Range.Clamp(round(raw))
	}
	return nil
}
