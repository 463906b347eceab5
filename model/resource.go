package model

// ResourceKind classifies a resource type.
type ResourceKind string

const (
	ResourceKindGeneric    ResourceKind = "Generic"
	ResourceKindContinuous ResourceKind = "Continuous"
	ResourceKindDiscrete   ResourceKind = "Discrete"
)

// Valid reports whether k is one of the declared resource kinds.
func (k ResourceKind) Valid() bool {
	switch k {
	case ResourceKindGeneric, ResourceKindContinuous, ResourceKindDiscrete:
		return true
	}
	return false
}

// Environment is the stowage environment of a resource type.
type Environment string

const (
	EnvironmentPressurized   Environment = "Pressurized"
	EnvironmentUnpressurized Environment = "Unpressurized"
)

// Valid reports whether e is one of the declared environments.
func (e Environment) Valid() bool {
	return e == EnvironmentPressurized || e == EnvironmentUnpressurized
}

// ResourceType is immutable catalog data describing one kind of resource.
type ResourceType struct {
	Kind          ResourceKind `json:"type"`
	Name          string       `json:"name"`
	ClassOfSupply int          `json:"classOfSupply"`
	Environment   Environment  `json:"environment"`
	Units         string       `json:"units"`
	// UnitMass is the mass (kg) of 1.0 units of this resource type.
	UnitMass float64 `json:"unitMass"`
	// UnitVolume is the volume (m^3) of 1.0 units of this resource type.
	UnitVolume float64 `json:"unitVolume"`
	// PackingFactor is the packaging mass (kg, COS 5) required per unit.
	PackingFactor float64 `json:"packingFactor"`
}

// Resource is a quantified amount of one resource type. Mass and Volume are
// carried as reported by the engine, not recomputed from the unit figures.
type Resource struct {
	Type   ResourceType `json:"resource"`
	Amount float64      `json:"amount"`
	Mass   float64      `json:"mass"`
	Volume float64      `json:"volume"`
}
