package dispatch

import (
	"sort"

	"github.com/kilianp07/powerplan/core/model"
)

// DispatchRow is a plant annotated with its pricing and generation bounds.
// Remaining and Usage are filled by Allocate.
type DispatchRow struct {
	Plant              model.PowerPlant
	Cost               float64
	AvailabilityFactor float64
	MaxGeneratable     float64
	MinGeneratable     float64
	Remaining          float64
	Usage              float64
}

// RankFuelTypes orders categories by ascending cost. Categories with the same
// cost keep their relative input order.
func RankFuelTypes(costs map[model.FuelType]CostEntry, types []model.FuelType) []model.FuelType {
	ranked := make([]model.FuelType, len(types))
	copy(ranked, types)
	sort.SliceStable(ranked, func(i, j int) bool {
		return costs[ranked[i]].Cost < costs[ranked[j]].Cost
	})
	return ranked
}

func newDispatchRow(p model.PowerPlant, c CostEntry) DispatchRow {
	return DispatchRow{
		Plant:              p,
		Cost:               c.Cost,
		AvailabilityFactor: c.AvailabilityFactor,
		MaxGeneratable:     float64(p.PMax) * p.Efficiency * c.AvailabilityFactor,
		MinGeneratable:     float64(p.PMin) * p.Efficiency * c.AvailabilityFactor,
	}
}

// MeritOrder builds one row per plant and sorts them in dispatch priority:
// category rank ascending, then efficiency, pmin and pmax descending. Plants
// equal on every key keep their fleet order.
func MeritOrder(plants []model.PowerPlant, costs map[model.FuelType]CostEntry, ranking []model.FuelType) []DispatchRow {
	rank := make(map[model.FuelType]int, len(ranking))
	for i, t := range ranking {
		rank[t] = i
	}
	rows := make([]DispatchRow, len(plants))
	for i, p := range plants {
		rows[i] = newDispatchRow(p, costs[p.Type])
	}
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].Plant, rows[j].Plant
		if ra, rb := rank[a.Type], rank[b.Type]; ra != rb {
			return ra < rb
		}
		if a.Efficiency != b.Efficiency {
			return a.Efficiency > b.Efficiency
		}
		if a.PMin != b.PMin {
			return a.PMin > b.PMin
		}
		return a.PMax > b.PMax
	})
	return rows
}
