package model

// FuelType identifies the fuel category a power plant burns.
type FuelType string

const (
	FuelGas      FuelType = "gasfired"
	FuelTurbojet FuelType = "turbojet"
	FuelWind     FuelType = "windturbine"
)

// IsRenewable reports whether the category is priced by availability rather
// than by fuel cost.
func (t FuelType) IsRenewable() bool { return t == FuelWind }

// String returns the wire name of the category.
func (t FuelType) String() string { return string(t) }

// Fuels carries the market inputs of a planning request.
type Fuels struct {
	Gas         float64 `json:"gas"`          // euro/MWh
	Kerosine    float64 `json:"kerosine"`     // euro/MWh
	CO2         float64 `json:"co2"`          // euro/ton, not part of the merit order
	WindPercent float64 `json:"wind_percent"` // wind availability, 0-100
}
