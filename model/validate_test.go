package model

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func waterType() ResourceType {
	return ResourceType{
		Kind:          ResourceKindContinuous,
		Name:          "Water",
		ClassOfSupply: 201,
		Environment:   EnvironmentPressurized,
		Units:         "kg",
		UnitMass:      1,
		UnitVolume:    0.001,
		PackingFactor: 0.1,
	}
}

func waterResource() Resource {
	return Resource{Type: waterType(), Amount: 10, Mass: 10, Volume: 0.01}
}

func TestResourceTypeValidate_RejectsNegativeUnitMass(t *testing.T) {
	rt := waterType()
	rt.UnitMass = -1

	err := rt.Validate("resource")
	if err == nil {
		t.Fatalf("expected error for negative unit mass")
	}
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if ve.Field != "resource.unitMass" {
		t.Errorf("Field = %q, want %q", ve.Field, "resource.unitMass")
	}
}

func TestResourceTypeValidate_RejectsUnknownKind(t *testing.T) {
	rt := waterType()
	rt.Kind = ResourceKind("Liquid")

	err := rt.Validate("resource")
	if err == nil {
		t.Fatalf("expected error for unknown kind")
	}
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if ve.Field != "resource.type" {
		t.Errorf("Field = %q, want %q", ve.Field, "resource.type")
	}
}

func TestResourceValidate_RejectsNonFiniteAmount(t *testing.T) {
	r := waterResource()
	r.Amount = math.NaN()

	if err := r.Validate("r"); err == nil {
		t.Fatalf("expected error for NaN amount")
	}
}

func TestRawDemandValidate_AcceptsNegativeTime(t *testing.T) {
	d := RawDemand{
		Time:        -2.5,
		Location:    Location{ID: 1, Name: "KSC"},
		Consumption: []Resource{waterResource()},
		Production:  []Resource{},
		TotalMass:   10,
		TotalVolume: 0.01,
	}
	if err := d.Validate("demands[0]"); err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
}

func TestRawDemandValidate_RejectsTotalMismatch(t *testing.T) {
	d := RawDemand{
		Time:        0,
		Location:    Location{ID: 1, Name: "KSC"},
		Consumption: []Resource{waterResource()},
		Production:  []Resource{},
		TotalMass:   99, // consumption sums to 10
		TotalVolume: 0.01,
	}
	err := d.Validate("demands[0]")
	if err == nil {
		t.Fatalf("expected error for total mass mismatch")
	}
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if ve.Field != "demands[0].totalMass" {
		t.Errorf("Field = %q, want %q", ve.Field, "demands[0].totalMass")
	}
}

func TestRawDemandValidate_TotalsWithinTolerancePass(t *testing.T) {
	d := RawDemand{
		Time:        0,
		Location:    Location{ID: 1, Name: "KSC"},
		Consumption: []Resource{waterResource()},
		Production:  []Resource{},
		TotalMass:   10.0000001, // rounded by the engine
		TotalVolume: 0.01,
	}
	if err := d.Validate("demands[0]"); err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
}

func validEdge() EdgeDemand {
	return EdgeDemand{
		StartTime:      0,
		EndTime:        3,
		Origin:         Location{ID: 1, Name: "KSC"},
		Destination:    Location{ID: 2, Name: "LEO"},
		Location:       Location{ID: 3, Name: "KSC-LEO"},
		Consumption:    []Resource{waterResource()},
		Production:     []Resource{},
		TotalMass:      10,
		TotalVolume:    0.01,
		MaxCargoMass:   100,
		NetCargoMass:   90,
		MaxCargoVolume: 10,
		NetCargoVolume: 9.99,
	}
}

func TestEdgeDemandValidate_Accepts(t *testing.T) {
	if err := validEdge().Validate("edges[0]"); err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
}

func TestEdgeDemandValidate_RejectsEndBeforeStart(t *testing.T) {
	e := validEdge()
	e.StartTime = 5
	e.EndTime = 2

	err := e.Validate("edges[0]")
	if err == nil {
		t.Fatalf("expected error for end before start")
	}
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if ve.Field != "edges[0].endTime" {
		t.Errorf("Field = %q, want %q", ve.Field, "edges[0].endTime")
	}
}

func TestEdgeDemandValidate_RejectsNetCargoMassAboveMax(t *testing.T) {
	e := validEdge()
	e.NetCargoMass = 101

	err := e.Validate("edges[0]")
	if err == nil {
		t.Fatalf("expected error for net cargo mass above max")
	}
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if ve.Field != "edges[0].netCargoMass" {
		t.Errorf("Field = %q, want %q", ve.Field, "edges[0].netCargoMass")
	}
}

func TestEdgeDemandValidate_RejectsNetCargoVolumeAboveMax(t *testing.T) {
	e := validEdge()
	e.NetCargoVolume = 10.5

	err := e.Validate("edges[0]")
	if err == nil {
		t.Fatalf("expected error for net cargo volume above max")
	}
	if !strings.Contains(err.Error(), "netCargoVolume") {
		t.Errorf("error %q does not name netCargoVolume", err.Error())
	}
}

func TestEdgeDemandValidate_AllowsNetEqualToMax(t *testing.T) {
	e := validEdge()
	e.NetCargoMass = e.MaxCargoMass
	e.NetCargoVolume = e.MaxCargoVolume

	if err := e.Validate("edges[0]"); err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
}

func TestAggregatedAnalysisValidate_ReportsEdgeIndex(t *testing.T) {
	bad := validEdge()
	bad.NetCargoMass = 1e9

	a := AggregatedDemandsAnalysis{
		Nodes: []NodeDemand{},
		Edges: []EdgeDemand{validEdge(), bad},
	}
	err := a.Validate()
	if err == nil {
		t.Fatalf("expected error for second edge")
	}
	if !strings.Contains(err.Error(), "edges[1]") {
		t.Errorf("error %q does not name edges[1]", err.Error())
	}
}
