package dynamo

import (
	"fmt"
	"math"
	"strings"
)

const (
	// DefaultDomainSize is the side length of the square box.
	DefaultDomainSize = 15.0
	// DefaultDt is the time increment applied by one advance.
	DefaultDt = 0.03
)

type Mode int

const (
	Temperature Mode = iota
	Mass
)

func (m Mode) String() string {
	switch m {
	case Temperature:
		return "temperature"
	case Mass:
		return "mass"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParamName is the label of the physical parameter in this mode.
func (m Mode) ParamName() string {
	if m == Mass {
		return "m"
	}
	return "T"
}

func (m Mode) Valid() bool {
	return m == Temperature || m == Mass
}

// ParseMode accepts "temperature"/"temp"/"t" and "mass"/"m", case-insensitive.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "temperature", "temp", "t":
		return Temperature, nil
	case "mass", "m":
		return Mass, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

func (m Mode) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMode, int(m))
	}
	return []byte(m.String()), nil
}

func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// CheckPositive rejects zero, negative, NaN and infinite values.
func CheckPositive(name string, v float64) error {
	if !(v > 0) || math.IsInf(v, 0) {
		return &ParamError{Name: name, Value: v}
	}
	return nil
}

// Scale returns the Maxwell scale parameter for a mode and physical parameter.
func Scale(mode Mode, param float64) (float64, error) {
	if !mode.Valid() {
		return 0, fmt.Errorf("%w: %d", ErrUnknownMode, int(mode))
	}
	if err := CheckPositive(mode.ParamName(), param); err != nil {
		return 0, err
	}
	if mode == Mass {
		return math.Sqrt(1 / param), nil
	}
	return param, nil
}
