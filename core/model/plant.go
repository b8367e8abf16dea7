package model

// PowerPlant is one generation asset of the fleet.
type PowerPlant struct {
	Name       string
	Type       FuelType
	Efficiency float64
	PMin       int
	PMax       int
}

// PlanRequest groups everything a dispatcher needs to build a plan.
type PlanRequest struct {
	Load   float64
	Fuels  Fuels
	Plants []PowerPlant
}

// FleetFuelTypes returns true for every fuel type present in the fleet.
func (r PlanRequest) FleetFuelTypes() map[FuelType]bool {
	out := make(map[FuelType]bool, 3)
	for _, p := range r.Plants {
		out[p.Type] = true
	}
	return out
}
