package lp

import (
	"fmt"
	"math"
)

// Var is a handle to a variable of a Model.
type Var int

// Kind is the domain of a variable.
type Kind int

const (
	Continuous Kind = iota
	Binary
)

func (k Kind) String() string {
	switch k {
	case Continuous:
		return "continuous"
	case Binary:
		return "binary"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Variable is a decision variable. Value is NaN until a solver populates it.
type Variable struct {
	Name       string
	Lower      float64
	Upper      float64
	Kind       Kind
	Initial    float64
	HasInitial bool
	Value      float64
}

// Sense is the relation of a constraint expression to zero.
type Sense int

const (
	LessEq Sense = iota
	Equal
	GreaterEq
)

func (s Sense) String() string {
	switch s {
	case LessEq:
		return "<="
	case Equal:
		return "=="
	case GreaterEq:
		return ">="
	default:
		return fmt.Sprintf("Sense(%d)", int(s))
	}
}

// Constraint is `Expr Sense 0`. A Trivial constraint is a placeholder that
// always holds; solvers skip it.
type Constraint struct {
	Name    string
	Expr    Expr
	Sense   Sense
	Trivial bool
}

// Eq builds lhs == rhs.
func Eq(lhs, rhs Expr) Constraint {
	return Constraint{Expr: lhs.Minus(rhs), Sense: Equal}
}

// Le builds lhs <= rhs.
func Le(lhs, rhs Expr) Constraint {
	return Constraint{Expr: lhs.Minus(rhs), Sense: LessEq}
}

// Ge builds lhs >= rhs.
func Ge(lhs, rhs Expr) Constraint {
	return Constraint{Expr: lhs.Minus(rhs), Sense: GreaterEq}
}

// Feasible is the vacuous constraint.
func Feasible() Constraint {
	return Constraint{Trivial: true, Sense: Equal}
}

// Model is a minimization problem over bounded variables.
type Model struct {
	Name        string
	Vars        []Variable
	Constraints []Constraint
	Objective   Expr
}

func NewModel(name string) *Model {
	return &Model{Name: name}
}

func (m *Model) AddVar(name string, lower, upper float64, kind Kind) Var {
	m.Vars = append(m.Vars, Variable{
		Name:  name,
		Lower: lower,
		Upper: upper,
		Kind:  kind,
		Value: math.NaN(),
	})
	return Var(len(m.Vars) - 1)
}

// AddVars adds n variables named prefix[0]..prefix[n-1] sharing bounds and kind.
func (m *Model) AddVars(prefix string, n int, lower, upper float64, kind Kind) []Var {
	out := make([]Var, n)
	for i := range out {
		out[i] = m.AddVar(fmt.Sprintf("%s[%d]", prefix, i), lower, upper, kind)
	}
	return out
}

// SetInitial records a starting value hint for v.
func (m *Model) SetInitial(v Var, x float64) {
	m.Vars[v].Initial = x
	m.Vars[v].HasInitial = true
}

func (m *Model) Var(v Var) Variable {
	return m.Vars[v]
}

// Value is the solved value of v, NaN if the model has not been solved.
func (m *Model) Value(v Var) float64 {
	return m.Vars[v].Value
}

// AddConstraint appends c under name and returns its index.
func (m *Model) AddConstraint(name string, c Constraint) int {
	c.Name = name
	m.Constraints = append(m.Constraints, c)
	return len(m.Constraints) - 1
}

func (m *Model) SetObjective(e Expr) {
	m.Objective = e
}

// IsLinear reports whether neither constraints nor objective have products.
func (m *Model) IsLinear() bool {
	if !m.Objective.IsLinear() {
		return false
	}
	for _, c := range m.Constraints {
		if !c.Trivial && !c.Expr.IsLinear() {
			return false
		}
	}
	return true
}

func (m *Model) HasIntegers() bool {
	for _, v := range m.Vars {
		if v.Kind != Continuous {
			return true
		}
	}
	return false
}

// Solved reports whether every variable has a value.
func (m *Model) Solved() bool {
	if len(m.Vars) == 0 {
		return false
	}
	for _, v := range m.Vars {
		if math.IsNaN(v.Value) {
			return false
		}
	}
	return true
}

// Values returns the current variable values.
func (m *Model) Values() []float64 {
	out := make([]float64, len(m.Vars))
	for i, v := range m.Vars {
		out[i] = v.Value
	}
	return out
}

// SetValues populates every variable value. len(values) must equal len(m.Vars).
func (m *Model) SetValues(values []float64) {
	for i := range m.Vars {
		m.Vars[i].Value = values[i]
	}
}

// ResetValues marks the model as unsolved.
func (m *Model) ResetValues() {
	for i := range m.Vars {
		m.Vars[i].Value = math.NaN()
	}
}

func (m *Model) ObjectiveValue() float64 {
	return m.Objective.Eval(m.Values())
}

// Violation is how far constraint i is from holding at the current values.
func (m *Model) Violation(i int) float64 {
	c := m.Constraints[i]
	if c.Trivial {
		return 0
	}
	v := c.Expr.Eval(m.Values())
	switch c.Sense {
	case LessEq:
		return math.Max(0, v)
	case GreaterEq:
		return math.Max(0, -v)
	default:
		return math.Abs(v)
	}
}

// Stats summarises the model size.
type Stats struct {
	Variables    int
	Binaries     int
	Constraints  int
	Placeholders int
	Products     int
}

func (m *Model) Stats() Stats {
	s := Stats{Variables: len(m.Vars), Constraints: len(m.Constraints)}
	for _, v := range m.Vars {
		if v.Kind == Binary {
			s.Binaries++
		}
	}
	for _, c := range m.Constraints {
		if c.Trivial {
			s.Placeholders++
			continue
		}
		s.Products += len(c.Expr.Products)
	}
	s.Products += len(m.Objective.Products)
	return s
}
