package dispatch

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/kilianp07/powerplan/core/model"
)

// StrategyLP is the registry name of LPDispatcher.
const StrategyLP = "lp"

// DefaultLPTolerance is the simplex tolerance used when none is configured.
const DefaultLPTolerance = 1e-7

var (
	// ErrInfeasible indicates the LP had no solution meeting the target.
	ErrInfeasible = errors.New("lp infeasible")
	// ErrMinimumViolated indicates the LP committed a plant below its minimum.
	ErrMinimumViolated = errors.New("lp solution below plant minimum")
)

// LPDispatcher minimises the fuel cost of the served load with a linear
// program. Plant minimums cannot be expressed as linear constraints, so
// solutions violating one are rejected and Dispatch falls back to merit order.
type LPDispatcher struct {
	Tolerance float64
	// OnFallback, when set, is called with the reason of every fallback.
	OnFallback func(error)
	fallback   MeritOrderDispatcher
}

// NewLPDispatcher returns an LP dispatcher with the default tolerance.
func NewLPDispatcher() *LPDispatcher {
	return &LPDispatcher{Tolerance: DefaultLPTolerance}
}

func (d *LPDispatcher) Name() string { return StrategyLP }

// solveLP minimises costᵀx subject to 0 ≤ x ≤ caps and Σx = target.
func solveLP(costs, caps []float64, target, tol float64) ([]float64, error) {
	n := len(caps)
	g := mat.NewDense(2*n, n, nil)
	h := make([]float64, 2*n)
	for i, c := range caps {
		g.Set(i, i, 1)
		h[i] = c
		g.Set(n+i, i, -1)
	}
	a := mat.NewDense(1, n, nil)
	for i := range caps {
		a.Set(0, i, 1)
	}
	b := []float64{target}

	cStd, aStd, bStd := lp.Convert(costs, g, h, a, b)
	_, sol, err := lp.Simplex(cStd, aStd, bStd, tol, nil)
	if err != nil {
		return nil, err
	}
	// Convert splits every variable into positive and negative parts.
	x := make([]float64, n)
	for i := range x {
		x[i] = sol[i] - sol[n+i]
	}
	return x, nil
}

// lpSolve can be overridden in tests to simulate solver failures.
var lpSolve = solveLP

// DispatchStrict solves the LP and reports why a solution could not be used.
// The returned rows are in merit order.
func (d *LPDispatcher) DispatchStrict(req model.PlanRequest) ([]DispatchRow, error) {
	rows := d.fallback.Rows(req)
	if len(rows) == 0 {
		return rows, nil
	}
	costs := make([]float64, len(rows))
	caps := make([]float64, len(rows))
	var capacity float64
	for i, r := range rows {
		costs[i] = r.Cost / r.Plant.Efficiency
		caps[i] = r.MaxGeneratable
		capacity += r.MaxGeneratable
	}
	target := math.Min(req.Load, capacity)
	if target <= 0 {
		return rows, nil
	}

	tol := d.Tolerance
	if tol <= 0 {
		tol = DefaultLPTolerance
	}
	sol, err := lpSolve(costs, caps, target, tol)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInfeasible, err)
	}

	var sum float64
	for i := range rows {
		p := math.Max(0, math.Min(sol[i], caps[i]))
		if p < 1e-9 {
			p = 0
		}
		if p > 0 && p < rows[i].MinGeneratable-1e-6 {
			return nil, fmt.Errorf("%w: %s at %.3f, minimum %.3f", ErrMinimumViolated, rows[i].Plant.Name, p, rows[i].MinGeneratable)
		}
		rows[i].Usage = p
		sum += p
	}
	if math.Abs(sum-target) > 1e-3 {
		return nil, ErrInfeasible
	}
	return rows, nil
}

// Dispatch implements the Dispatcher interface. Any LP failure falls back to
// merit-order allocation.
func (d *LPDispatcher) Dispatch(req model.PlanRequest) []DispatchRow {
	rows, err := d.DispatchStrict(req)
	if err != nil {
		if d.OnFallback != nil {
			d.OnFallback(err)
		}
		return d.fallback.Dispatch(req)
	}
	return rows
}
