package model

// Location is a spatial location in a scenario. IDs are unique within one
// analysis result and carry no meaning outside it.
type Location struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Element is a persistent physical actor in a scenario, e.g. a vehicle or
// habitat.
type Element struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// RawDemand is the set of demands aggregated to a single moment in time.
// Element is nil when the demand is not attributed to any element.
type RawDemand struct {
	// Time is days relative to scenario start; may be zero or negative.
	Time        float64    `json:"time"`
	Location    Location   `json:"location"`
	Element     *Element   `json:"element"`
	Consumption []Resource `json:"consumption"`
	Production  []Resource `json:"production"`
	TotalMass   float64    `json:"totalMass"`
	TotalVolume float64    `json:"totalVolume"`
}

// NodeDemand is demand aggregated to a supply node, across all elements at a
// location at a time.
type NodeDemand struct {
	Time        float64    `json:"time"`
	Location    Location   `json:"location"`
	Consumption []Resource `json:"consumption"`
	Production  []Resource `json:"production"`
	TotalMass   float64    `json:"totalMass"`
	TotalVolume float64    `json:"totalVolume"`
}

// EdgeDemand is demand aggregated over a transit interval between two
// locations, together with the carrier capacity available on that edge.
type EdgeDemand struct {
	StartTime   float64    `json:"startTime"`
	EndTime     float64    `json:"endTime"`
	Origin      Location   `json:"origin"`
	Destination Location   `json:"destination"`
	// Location is the edge's own addressable identity.
	Location    Location   `json:"location"`
	Consumption []Resource `json:"consumption"`
	Production  []Resource `json:"production"`
	TotalMass   float64    `json:"totalMass"`
	TotalVolume float64    `json:"totalVolume"`
	// Max cargo is the carriers' rated capacity; net cargo is what remains
	// after loading. Net never exceeds max.
	MaxCargoMass   float64 `json:"maxCargoMass"`
	NetCargoMass   float64 `json:"netCargoMass"`
	MaxCargoVolume float64 `json:"maxCargoVolume"`
	NetCargoVolume float64 `json:"netCargoVolume"`
}
