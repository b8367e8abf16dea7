package dispatch

import "github.com/kilianp07/powerplan/core/model"

// CostEntry is the pricing of one fuel category: the marginal cost used to
// rank it and the share of nameplate capacity that is actually usable.
type CostEntry struct {
	Cost               float64
	AvailabilityFactor float64
}

// FuelTypes returns the distinct fuel categories of the fleet in the order
// they first appear.
func FuelTypes(plants []model.PowerPlant) []model.FuelType {
	seen := make(map[model.FuelType]bool, len(plants))
	var types []model.FuelType
	for _, p := range plants {
		if seen[p.Type] {
			continue
		}
		seen[p.Type] = true
		types = append(types, p.Type)
	}
	return types
}

// fuelCost returns the price of a category. Unknown categories are free, like
// wind.
func fuelCost(fuels model.Fuels, t model.FuelType) float64 {
	switch t {
	case model.FuelGas:
		return fuels.Gas
	case model.FuelTurbojet:
		return fuels.Kerosine
	default:
		return 0
	}
}

// availabilityFactor scales the output of renewable categories by the wind
// percentage. Every other category runs at full capacity.
func availabilityFactor(fuels model.Fuels, t model.FuelType) float64 {
	if t.IsRenewable() {
		return fuels.WindPercent / 100
	}
	return 1.0
}

// CostModel derives a CostEntry for each of the given categories.
func CostModel(fuels model.Fuels, types []model.FuelType) map[model.FuelType]CostEntry {
	costs := make(map[model.FuelType]CostEntry, len(types))
	for _, t := range types {
		costs[t] = CostEntry{
			Cost:               fuelCost(fuels, t),
			AvailabilityFactor: availabilityFactor(fuels, t),
		}
	}
	return costs
}
