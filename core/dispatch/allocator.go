package dispatch

import (
	"github.com/shopspring/decimal"

	"github.com/kilianp07/powerplan/core/model"
)

// Allocate walks the merit-ordered rows and assigns Usage so that the fleet
// output follows load without exceeding any row's MaxGeneratable. A row runs
// either at zero or at or above its MinGeneratable, row 0 excepted.
//
// The first pass tracks the load left after each row. A row whose capacity
// exceeds a positive remainder consumes that remainder when it can run that
// low, and nothing otherwise, leaving the remainder to the next row. The
// second pass derives each row's usage from the previous row's remainder.
func Allocate(rows []DispatchRow, load float64) {
	if len(rows) == 0 {
		return
	}
	computeRemaining(rows, load)
	assignUsage(rows, load)
}

func computeRemaining(rows []DispatchRow, load float64) {
	rows[0].Remaining = load - rows[0].MaxGeneratable
	for i := 1; i < len(rows); i++ {
		prev := rows[i-1].Remaining
		consumed := rows[i].MaxGeneratable
		if rows[i].MaxGeneratable > prev && prev > 0 {
			consumed = 0
			if prev >= rows[i].MinGeneratable {
				consumed = prev
			}
		}
		rows[i].Remaining = prev - consumed
	}
}

func assignUsage(rows []DispatchRow, load float64) {
	// Row 0 is normally a zero-cost wind park, so its minimum is not checked.
	first := &rows[0]
	switch {
	case first.Remaining >= first.MaxGeneratable:
		first.Usage = first.MaxGeneratable
	case load <= first.MaxGeneratable:
		first.Usage = load
	default:
		first.Usage = 0
	}
	for i := 1; i < len(rows); i++ {
		r := rows[i-1].Remaining
		row := &rows[i]
		switch {
		case r >= row.MaxGeneratable:
			row.Usage = row.MaxGeneratable
		case r >= 0 && r >= row.MinGeneratable:
			row.Usage = r
		default:
			row.Usage = 0
		}
	}
}

// ShapePlan turns allocated rows into a plan. Rows with positive usage come
// first, followed by idle rows; both groups keep merit order.
func ShapePlan(rows []DispatchRow) model.Plan {
	plan := make(model.Plan, 0, len(rows))
	for _, r := range rows {
		if r.Usage > 0 {
			plan = append(plan, model.PlanEntry{Name: r.Plant.Name, P: Setpoint(r.Usage)})
		}
	}
	for _, r := range rows {
		if r.Usage <= 0 {
			plan = append(plan, model.PlanEntry{Name: r.Plant.Name, P: Setpoint(r.Usage)})
		}
	}
	return plan
}

// Setpoint rounds a usage to the nearest integer, ties to even.
func Setpoint(usage float64) int {
	return int(decimal.NewFromFloat(usage).RoundBank(0).IntPart())
}
