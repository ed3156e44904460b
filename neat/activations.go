package neat

import (
	"fmt"
	"math"
)

// ActivationKind selects the activation function of a node.
type ActivationKind int

const (
	Logistic ActivationKind = iota
	Tanh
	PReLU // parameterised ReLU, negative inputs are scaled by the node's learned slope
	Swish
)

// activationNames maps configuration names to activation kinds.
// This allows configuration to specify activations by name.
var activationNames = map[string]ActivationKind{
	"logistic": Logistic,
	"sigmoid":  Logistic, // Alias for logistic
	"tanh":     Tanh,
	"prelu":    PReLU,
	"swish":    Swish,
}

// ParseActivation retrieves an activation kind by name.
func ParseActivation(name string) (ActivationKind, error) {
	if kind, ok := activationNames[name]; ok {
		return kind, nil
	}
	return 0, fmt.Errorf("unknown activation function: %s", name)
}

// String returns the configuration name of the activation.
func (a ActivationKind) String() string {
	switch a {
	case Logistic:
		return "logistic"
	case Tanh:
		return "tanh"
	case PReLU:
		return "prelu"
	case Swish:
		return "swish"
	default:
		return fmt.Sprintf("activation(%d)", int(a))
	}
}

// Apply evaluates the activation at x. slope is only read by PReLU.
func (a ActivationKind) Apply(x, slope float64) float64 {
	switch a {
	case Tanh:
		return TanhActivation(x)
	case PReLU:
		return PReLUActivation(x, slope)
	case Swish:
		return SwishActivation(x)
	default:
		return LogisticActivation(x)
	}
}

// --- Activation Function Implementations ---

// LogisticActivation is the standard logistic sigmoid 1 / (1 + e^-x).
func LogisticActivation(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

// TanhActivation is the hyperbolic tangent, equal to 2·logistic(2x) - 1.
func TanhActivation(x float64) float64 {
	return math.Tanh(x)
}

// PReLUActivation passes positive inputs through and scales negative ones by slope.
func PReLUActivation(x, slope float64) float64 {
	if x < 0 {
		return slope * x
	}
	return x
}

// SwishActivation is x · logistic(x).
func SwishActivation(x float64) float64 {
	return x * LogisticActivation(x)
}
