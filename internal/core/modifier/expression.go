package modifier

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/ext"
)

// ExpressionVariable is the name bound to the base roll in CEL expressions.
const ExpressionVariable = "n"

var expressionEnv = sync.OnceValues(func() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable(ExpressionVariable, cel.IntType),
		ext.Math(),
	)
})

// FromExpression compiles a CEL expression over the base roll n, such as
// "n + 10" or "math.least(n * 2, 20)". The expression must yield an int.
func FromExpression(expr string) (*Modifier, error) {
	source := strings.TrimSpace(expr)
	if source == "" {
		return nil, invalidModifier("expression is empty", nil)
	}

	env, err := expressionEnv()
	if err != nil {
		return nil, fmt.Errorf("create CEL environment: %w", err)
	}
	ast, iss := env.Compile(source)
	if iss != nil && iss.Err() != nil {
		return nil, invalidModifier("compile expression: "+iss.Err().Error(), iss.Err())
	}
	out := ast.OutputType()
	if !out.IsExactType(cel.IntType) && !out.IsExactType(cel.DynType) {
		return nil, invalidModifier(fmt.Sprintf("expression yields %s, want int", out), nil)
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, invalidModifier("build program: "+err.Error(), err)
	}

	return newProbed("cel:"+source, func(base int) (int, error) {
		val, _, err := prg.Eval(map[string]any{ExpressionVariable: int64(base)})
		if err != nil {
			return 0, fmt.Errorf("evaluate %q: %w", source, err)
		}
		n, ok := val.Value().(int64)
		if !ok {
			return 0, fmt.Errorf("expression %q yielded %T, want int", source, val.Value())
		}
		return int(n), nil
	})
}
