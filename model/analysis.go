package model

// RawDemandsAnalysis is the result of a raw demands analysis: demands
// aggregated to moments in time, ordered by non-decreasing time.
type RawDemandsAnalysis struct {
	Demands []RawDemand `json:"demands"`
}

// AggregatedDemandsAnalysis is the result of an aggregated demands analysis:
// demands grouped to supply nodes and supply edges. The two sequences are
// independent beyond sharing one location identifier space.
type AggregatedDemandsAnalysis struct {
	Nodes []NodeDemand `json:"nodes"`
	Edges []EdgeDemand `json:"edges"`
}
