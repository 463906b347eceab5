package core

import (
	"encoding/json"
	"fmt"

	"github.com/orbitalworks/demands-service/model"
)

// Shadow JSON shapes for decoding engine output. Required fields are
// pointers so a missing field is distinguishable from a zero value; they
// stay unexported so the wire shape can evolve separately from the model.
type resourceTypeJSON struct {
	Type          *string  `json:"type"`
	Name          *string  `json:"name"`
	ClassOfSupply *int     `json:"classOfSupply"`
	Environment   *string  `json:"environment"`
	Units         *string  `json:"units"`
	UnitMass      *float64 `json:"unitMass"`
	UnitVolume    *float64 `json:"unitVolume"`
	PackingFactor *float64 `json:"packingFactor"`
}

type locationJSON struct {
	ID   *int    `json:"id"`
	Name *string `json:"name"`
}

type resourceJSON struct {
	Resource *resourceTypeJSON `json:"resource"`
	Amount   *float64          `json:"amount"`
	Mass     *float64          `json:"mass"`
	Volume   *float64          `json:"volume"`
}

type rawDemandJSON struct {
	Time        *float64       `json:"time"`
	Location    *locationJSON  `json:"location"`
	Element     *locationJSON  `json:"element"`
	Consumption []resourceJSON `json:"consumption"`
	Production  []resourceJSON `json:"production"`
	TotalMass   *float64       `json:"totalMass"`
	TotalVolume *float64       `json:"totalVolume"`
}

type rawAnalysisJSON struct {
	Demands []rawDemandJSON `json:"demands"`
}

type nodeDemandJSON struct {
	Time        *float64       `json:"time"`
	Location    *locationJSON  `json:"location"`
	Consumption []resourceJSON `json:"consumption"`
	Production  []resourceJSON `json:"production"`
	TotalMass   *float64       `json:"totalMass"`
	TotalVolume *float64       `json:"totalVolume"`
}

type edgeDemandJSON struct {
	StartTime      *float64       `json:"startTime"`
	EndTime        *float64       `json:"endTime"`
	Origin         *locationJSON  `json:"origin"`
	Destination    *locationJSON  `json:"destination"`
	Location       *locationJSON  `json:"location"`
	Consumption    []resourceJSON `json:"consumption"`
	Production     []resourceJSON `json:"production"`
	TotalMass      *float64       `json:"totalMass"`
	TotalVolume    *float64       `json:"totalVolume"`
	MaxCargoMass   *float64       `json:"maxCargoMass"`
	NetCargoMass   *float64       `json:"netCargoMass"`
	MaxCargoVolume *float64       `json:"maxCargoVolume"`
	NetCargoVolume *float64       `json:"netCargoVolume"`
}

type aggregatedAnalysisJSON struct {
	Nodes []nodeDemandJSON `json:"nodes"`
	Edges []edgeDemandJSON `json:"edges"`
}

func malformedf(path, format string, args ...any) error {
	return &MalformedResultError{Path: path, Reason: fmt.Sprintf(format, args...)}
}

func missing(path string) error {
	return malformedf(path, "missing required field")
}

// ParseRawDemandsAnalysis decodes the engine's demands-raw output. It is a
// pure function of data: strict about structure and enum labels, but it
// never reorders demands or recomputes the engine's aggregation.
func ParseRawDemandsAnalysis(data []byte) (*model.RawDemandsAnalysis, error) {
	var payload rawAnalysisJSON
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, &MalformedResultError{Reason: "decode failed: " + err.Error(), Err: err}
	}

	analysis := &model.RawDemandsAnalysis{
		Demands: make([]model.RawDemand, 0, len(payload.Demands)),
	}
	for i, jd := range payload.Demands {
		path := fmt.Sprintf("demands[%d]", i)
		demand, err := buildRawDemand(path, jd)
		if err != nil {
			return nil, err
		}
		analysis.Demands = append(analysis.Demands, demand)
	}

	if err := analysis.Validate(); err != nil {
		return nil, wrapValidation(err)
	}
	return analysis, nil
}

// ParseAggregatedDemandsAnalysis decodes the engine's demands-agg output.
func ParseAggregatedDemandsAnalysis(data []byte) (*model.AggregatedDemandsAnalysis, error) {
	var payload aggregatedAnalysisJSON
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, &MalformedResultError{Reason: "decode failed: " + err.Error(), Err: err}
	}

	analysis := &model.AggregatedDemandsAnalysis{
		Nodes: make([]model.NodeDemand, 0, len(payload.Nodes)),
		Edges: make([]model.EdgeDemand, 0, len(payload.Edges)),
	}
	for i, jn := range payload.Nodes {
		path := fmt.Sprintf("nodes[%d]", i)
		node, err := buildNodeDemand(path, jn)
		if err != nil {
			return nil, err
		}
		analysis.Nodes = append(analysis.Nodes, node)
	}
	for i, je := range payload.Edges {
		path := fmt.Sprintf("edges[%d]", i)
		edge, err := buildEdgeDemand(path, je)
		if err != nil {
			return nil, err
		}
		analysis.Edges = append(analysis.Edges, edge)
	}

	if err := analysis.Validate(); err != nil {
		return nil, wrapValidation(err)
	}
	return analysis, nil
}

// wrapValidation converts a model-level invariant violation into the
// malformed-result taxonomy: a well-behaved engine never emits entities that
// fail construction, so a ValidationError here is the engine's fault.
func wrapValidation(err error) error {
	if ve, ok := err.(*model.ValidationError); ok {
		return &MalformedResultError{Path: ve.Field, Reason: ve.Reason, Err: err}
	}
	return &MalformedResultError{Reason: err.Error(), Err: err}
}

func buildResourceType(path string, j *resourceTypeJSON) (model.ResourceType, error) {
	if j == nil {
		return model.ResourceType{}, missing(path)
	}
	switch {
	case j.Type == nil:
		return model.ResourceType{}, missing(path + ".type")
	case j.Name == nil:
		return model.ResourceType{}, missing(path + ".name")
	case j.ClassOfSupply == nil:
		return model.ResourceType{}, missing(path + ".classOfSupply")
	case j.Environment == nil:
		return model.ResourceType{}, missing(path + ".environment")
	case j.Units == nil:
		return model.ResourceType{}, missing(path + ".units")
	case j.UnitMass == nil:
		return model.ResourceType{}, missing(path + ".unitMass")
	case j.UnitVolume == nil:
		return model.ResourceType{}, missing(path + ".unitVolume")
	case j.PackingFactor == nil:
		return model.ResourceType{}, missing(path + ".packingFactor")
	}

	kind := model.ResourceKind(*j.Type)
	if !kind.Valid() {
		return model.ResourceType{}, malformedf(path+".type", "unknown resource type %q", *j.Type)
	}
	env := model.Environment(*j.Environment)
	if !env.Valid() {
		return model.ResourceType{}, malformedf(path+".environment", "unknown environment %q", *j.Environment)
	}

	return model.ResourceType{
		Kind:          kind,
		Name:          *j.Name,
		ClassOfSupply: *j.ClassOfSupply,
		Environment:   env,
		Units:         *j.Units,
		UnitMass:      *j.UnitMass,
		UnitVolume:    *j.UnitVolume,
		PackingFactor: *j.PackingFactor,
	}, nil
}

func buildLocation(path string, j *locationJSON) (model.Location, error) {
	if j == nil {
		return model.Location{}, missing(path)
	}
	if j.ID == nil {
		return model.Location{}, missing(path + ".id")
	}
	if j.Name == nil {
		return model.Location{}, missing(path + ".name")
	}
	return model.Location{ID: *j.ID, Name: *j.Name}, nil
}

func buildResources(path string, list []resourceJSON) ([]model.Resource, error) {
	resources := make([]model.Resource, 0, len(list))
	for i, jr := range list {
		rpath := fmt.Sprintf("%s[%d]", path, i)
		rt, err := buildResourceType(rpath+".resource", jr.Resource)
		if err != nil {
			return nil, err
		}
		switch {
		case jr.Amount == nil:
			return nil, missing(rpath + ".amount")
		case jr.Mass == nil:
			return nil, missing(rpath + ".mass")
		case jr.Volume == nil:
			return nil, missing(rpath + ".volume")
		}
		resources = append(resources, model.Resource{
			Type:   rt,
			Amount: *jr.Amount,
			Mass:   *jr.Mass,
			Volume: *jr.Volume,
		})
	}
	return resources, nil
}

func buildRawDemand(path string, j rawDemandJSON) (model.RawDemand, error) {
	if j.Time == nil {
		return model.RawDemand{}, missing(path + ".time")
	}
	location, err := buildLocation(path+".location", j.Location)
	if err != nil {
		return model.RawDemand{}, err
	}

	var element *model.Element
	if j.Element != nil {
		if j.Element.ID == nil {
			return model.RawDemand{}, missing(path + ".element.id")
		}
		if j.Element.Name == nil {
			return model.RawDemand{}, missing(path + ".element.name")
		}
		element = &model.Element{ID: *j.Element.ID, Name: *j.Element.Name}
	}

	consumption, err := buildResources(path+".consumption", j.Consumption)
	if err != nil {
		return model.RawDemand{}, err
	}
	production, err := buildResources(path+".production", j.Production)
	if err != nil {
		return model.RawDemand{}, err
	}
	if j.TotalMass == nil {
		return model.RawDemand{}, missing(path + ".totalMass")
	}
	if j.TotalVolume == nil {
		return model.RawDemand{}, missing(path + ".totalVolume")
	}

	return model.RawDemand{
		Time:        *j.Time,
		Location:    location,
		Element:     element,
		Consumption: consumption,
		Production:  production,
		TotalMass:   *j.TotalMass,
		TotalVolume: *j.TotalVolume,
	}, nil
}

func buildNodeDemand(path string, j nodeDemandJSON) (model.NodeDemand, error) {
	if j.Time == nil {
		return model.NodeDemand{}, missing(path + ".time")
	}
	location, err := buildLocation(path+".location", j.Location)
	if err != nil {
		return model.NodeDemand{}, err
	}
	consumption, err := buildResources(path+".consumption", j.Consumption)
	if err != nil {
		return model.NodeDemand{}, err
	}
	production, err := buildResources(path+".production", j.Production)
	if err != nil {
		return model.NodeDemand{}, err
	}
	if j.TotalMass == nil {
		return model.NodeDemand{}, missing(path + ".totalMass")
	}
	if j.TotalVolume == nil {
		return model.NodeDemand{}, missing(path + ".totalVolume")
	}

	return model.NodeDemand{
		Time:        *j.Time,
		Location:    location,
		Consumption: consumption,
		Production:  production,
		TotalMass:   *j.TotalMass,
		TotalVolume: *j.TotalVolume,
	}, nil
}

func buildEdgeDemand(path string, j edgeDemandJSON) (model.EdgeDemand, error) {
	if j.StartTime == nil {
		return model.EdgeDemand{}, missing(path + ".startTime")
	}
	if j.EndTime == nil {
		return model.EdgeDemand{}, missing(path + ".endTime")
	}
	origin, err := buildLocation(path+".origin", j.Origin)
	if err != nil {
		return model.EdgeDemand{}, err
	}
	destination, err := buildLocation(path+".destination", j.Destination)
	if err != nil {
		return model.EdgeDemand{}, err
	}
	location, err := buildLocation(path+".location", j.Location)
	if err != nil {
		return model.EdgeDemand{}, err
	}
	consumption, err := buildResources(path+".consumption", j.Consumption)
	if err != nil {
		return model.EdgeDemand{}, err
	}
	production, err := buildResources(path+".production", j.Production)
	if err != nil {
		return model.EdgeDemand{}, err
	}
	switch {
	case j.TotalMass == nil:
		return model.EdgeDemand{}, missing(path + ".totalMass")
	case j.TotalVolume == nil:
		return model.EdgeDemand{}, missing(path + ".totalVolume")
	case j.MaxCargoMass == nil:
		return model.EdgeDemand{}, missing(path + ".maxCargoMass")
	case j.NetCargoMass == nil:
		return model.EdgeDemand{}, missing(path + ".netCargoMass")
	case j.MaxCargoVolume == nil:
		return model.EdgeDemand{}, missing(path + ".maxCargoVolume")
	case j.NetCargoVolume == nil:
		return model.EdgeDemand{}, missing(path + ".netCargoVolume")
	}

	return model.EdgeDemand{
		StartTime:      *j.StartTime,
		EndTime:        *j.EndTime,
		Origin:         origin,
		Destination:    destination,
		Location:       location,
		Consumption:    consumption,
		Production:     production,
		TotalMass:      *j.TotalMass,
		TotalVolume:    *j.TotalVolume,
		MaxCargoMass:   *j.MaxCargoMass,
		NetCargoMass:   *j.NetCargoMass,
		MaxCargoVolume: *j.MaxCargoVolume,
		NetCargoVolume: *j.NetCargoVolume,
	}, nil
}
