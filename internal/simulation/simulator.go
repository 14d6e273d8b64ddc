package simulation

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	// ErrInvalidInput is returned when a numeric input is out of range.
	ErrInvalidInput = errors.New("invalid simulation input")

	// ErrUnknownStrategy is returned for a strategy outside the recognized set.
	ErrUnknownStrategy = errors.New("unknown strategy")
)

const (
	// BottleneckPlaceholder is reported whenever the allocation leaves a shortfall.
	BottleneckPlaceholder = "Senior Developer (Java)"

	// BottleneckNone is reported when the requirement is fully covered.
	BottleneckNone = "None"

	// aggressiveLimitFactor relaxes the outsourcing ceiling for the cost-optimized policy.
	aggressiveLimitFactor = 1.5
)

// InputError describes which input field failed validation.
type InputError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%s: %s %s (got %v)", ErrInvalidInput, e.Field, e.Reason, e.Value)
}

func (e *InputError) Unwrap() error {
	return ErrInvalidInput
}

// Input is one simulation request. Costs are per person-month in units of
// 10,000 KRW.
type Input struct {
	AvailableInternalMM   float64
	RequiredMM            float64
	UnitCostInternal      float64
	UnitCostExternal      float64
	OutsourceLimitPercent float64
	Strategy              Strategy
}

// Defaults returns the input the simulation form starts with.
func Defaults() Input {
	return Input{
		AvailableInternalMM:   120,
		RequiredMM:            150,
		UnitCostInternal:      800,
		UnitCostExternal:      1200,
		OutsourceLimitPercent: 20,
		Strategy:              StrategyNeutral,
	}
}

// Validate checks the input without running a policy.
func (in Input) Validate() error {
	fields := []struct {
		name  string
		value float64
	}{
		{"available internal MM", in.AvailableInternalMM},
		{"required MM", in.RequiredMM},
		{"internal unit cost", in.UnitCostInternal},
		{"external unit cost", in.UnitCostExternal},
		{"outsource limit", in.OutsourceLimitPercent},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return &InputError{Field: f.name, Value: f.value, Reason: "must be finite"}
		}
		if f.value < 0 {
			return &InputError{Field: f.name, Value: f.value, Reason: "must not be negative"}
		}
	}
	if in.RequiredMM <= 0 {
		return &InputError{Field: "required MM", Value: in.RequiredMM, Reason: "must be greater than zero"}
	}
	if in.OutsourceLimitPercent > 100 {
		return &InputError{Field: "outsource limit", Value: in.OutsourceLimitPercent, Reason: "must not exceed 100"}
	}
	if !in.Strategy.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownStrategy, string(in.Strategy))
	}
	return nil
}

// Result is the outcome of one simulation run.
type Result struct {
	Strategy            Strategy
	AllocatedInternalMM float64
	AllocatedExternalMM float64
	TotalCost           float64
	FulfillmentPercent  int
	RiskIndex           int
	Bottleneck          string
	PolicyName          string
	PolicySteps         []string

	// LimitExceeded reports that the external share went past the
	// configured ceiling. It does not affect RiskIndex.
	LimitExceeded bool

	ExecutedAt time.Time
}

// AllocatedMM returns the total person-months allocated.
func (r Result) AllocatedMM() float64 {
	return r.AllocatedInternalMM + r.AllocatedExternalMM
}

// HighRisk reports whether the risk index is above the stable band.
func (r Result) HighRisk() bool {
	return r.RiskIndex > 50
}

// Simulator runs allocation policies. The zero value uses the wall clock.
type Simulator struct {
	// Now supplies the result timestamp.
	Now func() time.Time
}

// NewSimulator creates a simulator that stamps results with the given clock.
func NewSimulator(now func() time.Time) *Simulator {
	return &Simulator{Now: now}
}

// Simulate runs the policy selected by in.Strategy using the wall clock.
func Simulate(in Input) (Result, error) {
	var s Simulator
	return s.Simulate(in)
}

// Simulate runs the policy selected by in.Strategy.
func (s *Simulator) Simulate(in Input) (Result, error) {
	if err := in.Validate(); err != nil {
		return Result{}, err
	}

	p := policies[in.Strategy]
	internal, external := allocate(in)

	fulfillment := math.Round(math.Min(100, 100*((internal+external)/in.RequiredMM)))
	risk := p.riskBase + (external/in.RequiredMM)*p.riskRate

	// Finite inputs can still overflow the cost, in won or in input units.
	totalCost := internal*in.UnitCostInternal + external*in.UnitCostExternal
	if math.IsInf(totalCost*KRWPerCostUnit, 0) || math.IsNaN(totalCost) {
		return Result{}, &InputError{Field: "total cost", Value: totalCost, Reason: "is out of range"}
	}

	res := Result{
		Strategy:            in.Strategy,
		AllocatedInternalMM: internal,
		AllocatedExternalMM: external,
		TotalCost:           totalCost,
		FulfillmentPercent:  int(fulfillment),
		RiskIndex:           int(math.Round(clamp(risk, 0, 100))),
		Bottleneck:          BottleneckNone,
		PolicyName:          p.name,
		PolicySteps:         in.Strategy.PolicySteps(),
		LimitExceeded:       external > in.RequiredMM*(in.OutsourceLimitPercent/100),
		ExecutedAt:          s.now(),
	}
	if res.FulfillmentPercent < 100 {
		res.Bottleneck = BottleneckPlaceholder
	}
	return res, nil
}

func (s *Simulator) now() time.Time {
	if s == nil || s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// allocate splits the required effort between internal and external staff.
func allocate(in Input) (internal, external float64) {
	required := in.RequiredMM
	switch in.Strategy {
	case StrategyConservative:
		internal = math.Min(in.AvailableInternalMM, required)
		ceiling := required * (in.OutsourceLimitPercent / 100)
		external = math.Min(required-internal, ceiling)

	case StrategyNeutral:
		internal = math.Min(in.AvailableInternalMM, required)
		external = required - internal

	case StrategyAggressive:
		if in.UnitCostExternal < in.UnitCostInternal {
			ceiling := required * (in.OutsourceLimitPercent * aggressiveLimitFactor / 100)
			external = math.Min(required, ceiling)
			internal = math.Max(0, required-external)
		} else {
			internal = math.Min(in.AvailableInternalMM, required)
			external = required - internal
		}
	}
	return internal, external
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
