// Package export renders plan records for files and terminals.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/kilianp07/powerplan/core/model"
)

// Formats accepted by Write.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// Write renders rec in the given format.
func Write(w io.Writer, format string, rec model.PlanRecord) error {
	switch format {
	case "", FormatJSON:
		return WriteJSON(w, rec.Plan)
	case FormatCSV:
		return WriteCSV(w, rec)
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
}

// WriteJSON writes the plan to w in the API response format.
func WriteJSON(w io.Writer, plan model.Plan) error {
	if plan == nil {
		plan = model.Plan{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(plan)
}

// WriteCSV writes one line per plant in plan order with its fuel type,
// setpoint and generation bounds.
func WriteCSV(w io.Writer, rec model.PlanRecord) error {
	units := make(map[string]model.UnitDispatch, len(rec.Units))
	for _, u := range rec.Units {
		units[u.Name] = u
	}
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"name", "fuel_type", "p", "usage_mw", "min_mw", "max_mw"}); err != nil {
		return err
	}
	for _, e := range rec.Plan {
		u := units[e.Name]
		row := []string{
			e.Name,
			u.Type.String(),
			strconv.Itoa(e.P),
			formatMW(u.Usage),
			formatMW(u.MinGeneratable),
			formatMW(u.MaxGeneratable),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatMW(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
