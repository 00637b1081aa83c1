package formulation

import (
	"fmt"
	"strings"

	"energy-dispatch/internal/model"
)

// Variant selects a problem formulation. The values are the selectors used in
// configuration files and requests.
type Variant string

const (
	// Linear is the continuous relaxation: no switching variables.
	Linear Variant = "A"
	// MixedInteger adds binary buy/sell and charge/discharge switches.
	MixedInteger Variant = "B"
)

// Variants lists every formulation in selector order.
func Variants() []Variant {
	return []Variant{Linear, MixedInteger}
}

// ParseVariant accepts "A"/"B" as well as the long names.
func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "a", "linear":
		return Linear, nil
	case "b", "mixed-integer", "mixed_integer", "milp":
		return MixedInteger, nil
	}
	return "", &model.ConfigurationError{
		Field:  "variant",
		Reason: fmt.Sprintf("must be one of \"A\" or \"B\", got %q", s),
	}
}

func (v Variant) Name() string {
	switch v {
	case Linear:
		return "linear"
	case MixedInteger:
		return "mixed-integer"
	default:
		return string(v)
	}
}

func (v Variant) Description() string {
	switch v {
	case Linear:
		return "Linear relaxation. Continuous flows only; simultaneous buy/sell or charge/discharge is not excluded."
	case MixedInteger:
		return "Mixed-integer extension. Binary switches gate every flow and make buy/sell and charge/discharge mutually exclusive."
	default:
		return ""
	}
}

type buildFunc func(in model.Inputs) *Problem

var builders = map[Variant]buildFunc{
	Linear:       buildLinear,
	MixedInteger: buildMixedInteger,
}

// Build validates the inputs and constructs the model for variant. Invalid
// inputs fail with *model.ConfigurationError before any variable exists.
func Build(v Variant, in model.Inputs) (*Problem, error) {
	build, ok := builders[v]
	if !ok {
		return nil, &model.ConfigurationError{Field: "variant", Reason: fmt.Sprintf("unknown variant %q", string(v))}
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return build(in), nil
}
