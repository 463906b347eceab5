package model

import (
	"fmt"
	"math"
)

// tolerance is the relative slack allowed when comparing engine-reported
// aggregates, sized for float64 values the engine rounds before writing.
const tolerance = 1e-6

// ValidationError reports a domain entity that violates an invariant. Field
// holds the full path of the offending field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalidf(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func nearlyEqual(a, b float64) bool {
	scale := math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
	return math.Abs(a-b) <= tolerance*scale
}

func checkNonNegative(field string, v float64) error {
	if !finite(v) {
		return invalidf(field, "must be finite, got %v", v)
	}
	if v < 0 {
		return invalidf(field, "must be non-negative, got %v", v)
	}
	return nil
}

// Validate checks catalog invariants. field is the path prefix used when
// reporting a violation.
func (rt ResourceType) Validate(field string) error {
	if !rt.Kind.Valid() {
		return invalidf(field+".type", "unknown resource kind %q", string(rt.Kind))
	}
	if !rt.Environment.Valid() {
		return invalidf(field+".environment", "unknown environment %q", string(rt.Environment))
	}
	if err := checkNonNegative(field+".unitMass", rt.UnitMass); err != nil {
		return err
	}
	if err := checkNonNegative(field+".unitVolume", rt.UnitVolume); err != nil {
		return err
	}
	return checkNonNegative(field+".packingFactor", rt.PackingFactor)
}

// Validate checks that the quantity and its derived mass/volume are physical.
func (r Resource) Validate(field string) error {
	if err := r.Type.Validate(field + ".resource"); err != nil {
		return err
	}
	if err := checkNonNegative(field+".amount", r.Amount); err != nil {
		return err
	}
	if err := checkNonNegative(field+".mass", r.Mass); err != nil {
		return err
	}
	return checkNonNegative(field+".volume", r.Volume)
}

func validateResources(field string, resources []Resource) (mass, volume float64, err error) {
	for i, r := range resources {
		if err := r.Validate(fmt.Sprintf("%s[%d]", field, i)); err != nil {
			return 0, 0, err
		}
		mass += r.Mass
		volume += r.Volume
	}
	return mass, volume, nil
}

func validateTotals(field string, consumption, production []Resource, totalMass, totalVolume float64) error {
	cMass, cVolume, err := validateResources(field+".consumption", consumption)
	if err != nil {
		return err
	}
	pMass, pVolume, err := validateResources(field+".production", production)
	if err != nil {
		return err
	}
	if err := checkNonNegative(field+".totalMass", totalMass); err != nil {
		return err
	}
	if err := checkNonNegative(field+".totalVolume", totalVolume); err != nil {
		return err
	}
	if !nearlyEqual(totalMass, cMass+pMass) {
		return invalidf(field+".totalMass", "total %v does not match demand sum %v", totalMass, cMass+pMass)
	}
	if !nearlyEqual(totalVolume, cVolume+pVolume) {
		return invalidf(field+".totalVolume", "total %v does not match demand sum %v", totalVolume, cVolume+pVolume)
	}
	return nil
}

// Validate checks a single raw demand record. Time may be negative (before
// the scenario epoch) but must be finite.
func (d RawDemand) Validate(field string) error {
	if !finite(d.Time) {
		return invalidf(field+".time", "must be finite, got %v", d.Time)
	}
	return validateTotals(field, d.Consumption, d.Production, d.TotalMass, d.TotalVolume)
}

// Validate checks a supply node demand record.
func (d NodeDemand) Validate(field string) error {
	if !finite(d.Time) {
		return invalidf(field+".time", "must be finite, got %v", d.Time)
	}
	return validateTotals(field, d.Consumption, d.Production, d.TotalMass, d.TotalVolume)
}

// Validate checks a supply edge demand record, including the carrier
// capacity invariant: remaining (net) cargo never exceeds rated (max) cargo.
func (d EdgeDemand) Validate(field string) error {
	if !finite(d.StartTime) {
		return invalidf(field+".startTime", "must be finite, got %v", d.StartTime)
	}
	if !finite(d.EndTime) {
		return invalidf(field+".endTime", "must be finite, got %v", d.EndTime)
	}
	if d.EndTime < d.StartTime {
		return invalidf(field+".endTime", "end time %v precedes start time %v", d.EndTime, d.StartTime)
	}
	if err := validateTotals(field, d.Consumption, d.Production, d.TotalMass, d.TotalVolume); err != nil {
		return err
	}
	if err := checkNonNegative(field+".maxCargoMass", d.MaxCargoMass); err != nil {
		return err
	}
	if err := checkNonNegative(field+".netCargoMass", d.NetCargoMass); err != nil {
		return err
	}
	if err := checkNonNegative(field+".maxCargoVolume", d.MaxCargoVolume); err != nil {
		return err
	}
	if err := checkNonNegative(field+".netCargoVolume", d.NetCargoVolume); err != nil {
		return err
	}
	if d.NetCargoMass > d.MaxCargoMass && !nearlyEqual(d.NetCargoMass, d.MaxCargoMass) {
		return invalidf(field+".netCargoMass", "net cargo mass %v exceeds max cargo mass %v", d.NetCargoMass, d.MaxCargoMass)
	}
	if d.NetCargoVolume > d.MaxCargoVolume && !nearlyEqual(d.NetCargoVolume, d.MaxCargoVolume) {
		return invalidf(field+".netCargoVolume", "net cargo volume %v exceeds max cargo volume %v", d.NetCargoVolume, d.MaxCargoVolume)
	}
	return nil
}

// Validate checks every demand in the analysis.
func (a RawDemandsAnalysis) Validate() error {
	for i, d := range a.Demands {
		if err := d.Validate(fmt.Sprintf("demands[%d]", i)); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks every node and edge demand in the analysis.
func (a AggregatedDemandsAnalysis) Validate() error {
	for i, n := range a.Nodes {
		if err := n.Validate(fmt.Sprintf("nodes[%d]", i)); err != nil {
			return err
		}
	}
	for i, e := range a.Edges {
		if err := e.Validate(fmt.Sprintf("edges[%d]", i)); err != nil {
			return err
		}
	}
	return nil
}
