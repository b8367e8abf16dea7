package model

import "time"

// PlanEntry is the rounded setpoint of one plant.
type PlanEntry struct {
	Name string `json:"name"`
	P    int    `json:"p"`
}

// Plan is the ordered production plan: committed plants first, then idle
// ones, each group in merit order.
type Plan []PlanEntry

// Total returns the sum of all setpoints.
func (p Plan) Total() int {
	total := 0
	for _, e := range p {
		total += e.P
	}
	return total
}

// UnitDispatch details the allocation of one plant in merit order.
type UnitDispatch struct {
	Name           string   `json:"name"`
	Type           FuelType `json:"type"`
	Cost           float64  `json:"cost"`
	Usage          float64  `json:"usage"`
	MinGeneratable float64  `json:"min_generatable"`
	MaxGeneratable float64  `json:"max_generatable"`
}

// PlanRecord is the outcome of one planning call with its context. It is
// handed to metrics sinks and publishers once computed.
type PlanRecord struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Strategy  string         `json:"strategy"`
	Load      float64        `json:"load"`
	Fuels     Fuels          `json:"fuels"`
	Units     []UnitDispatch `json:"units"`
	Plan      Plan           `json:"plan"`
}

// Served returns the unrounded power allocated across the fleet.
func (r PlanRecord) Served() float64 {
	var sum float64
	for _, u := range r.Units {
		sum += u.Usage
	}
	return sum
}

// Capacity returns the total generatable power of the fleet.
func (r PlanRecord) Capacity() float64 {
	var sum float64
	for _, u := range r.Units {
		sum += u.MaxGeneratable
	}
	return sum
}

// Unserved returns how much of the requested load is left uncovered.
func (r PlanRecord) Unserved() float64 {
	if d := r.Load - r.Served(); d > 0 {
		return d
	}
	return 0
}
