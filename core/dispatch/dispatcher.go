package dispatch

import "github.com/kilianp07/powerplan/core/model"

// Dispatcher allocates a load request over a fleet and returns the fleet in
// merit order with Usage set on every row.
type Dispatcher interface {
	Name() string
	Dispatch(req model.PlanRequest) []DispatchRow
}

// MeritOrderDispatcher commits the cheapest, most efficient plants first.
type MeritOrderDispatcher struct{}

// StrategyMeritOrder is the registry name of MeritOrderDispatcher.
const StrategyMeritOrder = "merit_order"

func (MeritOrderDispatcher) Name() string { return StrategyMeritOrder }

// Rows prices and orders the fleet without allocating any load.
func (MeritOrderDispatcher) Rows(req model.PlanRequest) []DispatchRow {
	types := FuelTypes(req.Plants)
	costs := CostModel(req.Fuels, types)
	return MeritOrder(req.Plants, costs, RankFuelTypes(costs, types))
}

// Dispatch implements the Dispatcher interface.
func (d MeritOrderDispatcher) Dispatch(req model.PlanRequest) []DispatchRow {
	rows := d.Rows(req)
	Allocate(rows, req.Load)
	return rows
}
