// Package simulation implements the staffing allocation simulator.
//
// A simulation takes the internal capacity on hand, the effort a project
// needs, unit costs and an outsourcing ceiling, and allocates person-months
// between internal and external resources under one of three policies.
package simulation

import (
	"fmt"
	"strings"
)

// Strategy selects which allocation policy runs.
type Strategy string

const (
	StrategyConservative Strategy = "Conservative"
	StrategyNeutral      Strategy = "Neutral"
	StrategyAggressive   Strategy = "Aggressive"
)

// Strategies lists the recognized strategies in display order.
func Strategies() []Strategy {
	return []Strategy{StrategyConservative, StrategyNeutral, StrategyAggressive}
}

// Valid checks if the strategy is one of the recognized values.
func (s Strategy) Valid() bool {
	switch s {
	case StrategyConservative, StrategyNeutral, StrategyAggressive:
		return true
	}
	return false
}

func (s Strategy) String() string {
	return string(s)
}

// ParseStrategy converts a name to a Strategy. Matching ignores case and
// surrounding whitespace; anything else fails with ErrUnknownStrategy.
func ParseStrategy(name string) (Strategy, error) {
	trimmed := strings.TrimSpace(name)
	for _, s := range Strategies() {
		if strings.EqualFold(trimmed, string(s)) {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
}

// policy holds the fixed parameters of one allocation policy.
type policy struct {
	name     string
	label    string
	riskBase float64
	riskRate float64
	steps    []string
}

var policies = map[Strategy]policy{
	StrategyConservative: {
		name:     "Secure_Internal_v1",
		label:    "Safety first",
		riskBase: 15,
		riskRate: 20,
		steps: []string{
			"Priority 1: maximize allocation of internal core staff",
			"Constraint: enforce the external staffing ceiling strictly",
			"Exception: shortfall is accepted and reported, never filled past the ceiling",
			"Quality: keep security and delivery risk to a minimum",
		},
	},
	StrategyNeutral: {
		name:     "Balanced_Mix_v2",
		label:    "Balanced mix",
		riskBase: 35,
		riskRate: 30,
		steps: []string{
			"Priority 1: allocate available internal staff",
			"Priority 2: fill the remaining shortfall with external staff",
			"Constraint: the external ceiling is advisory when it blocks fulfillment",
			"Goal: balance delivery against cost",
		},
	},
	StrategyAggressive: {
		name:     "Cost_Opt_v3",
		label:    "Cost optimized",
		riskBase: 65,
		riskRate: 50,
		steps: []string{
			"Priority 1: compare internal and external unit costs",
			"Logic: prefer the cheaper resource pool",
			"Constraint: relax the external ceiling by 1.5x",
			"Risk: accept higher delivery risk for lower cost",
		},
	},
}

// PolicyName returns the identifier of the policy run by the strategy.
func (s Strategy) PolicyName() string {
	return policies[s].name
}

// Label returns a short description of the strategy.
func (s Strategy) Label() string {
	return policies[s].label
}

// PolicySteps returns the fixed rule trace of the strategy's policy.
func (s Strategy) PolicySteps() []string {
	p, ok := policies[s]
	if !ok {
		return nil
	}
	steps := make([]string, len(p.steps))
	copy(steps, p.steps)
	return steps
}
