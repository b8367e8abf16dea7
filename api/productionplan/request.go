package productionplan

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/kilianp07/powerplan/core/model"
)

// FuelsDTO is the wire form of the market inputs.
type FuelsDTO struct {
	Gas      *float64 `json:"gas(euro/MWh)"`
	Kerosine *float64 `json:"kerosine(euro/MWh)"`
	CO2      *float64 `json:"co2(euro/ton)" validate:"omitempty,gte=0"`
	Wind     *float64 `json:"wind(%)" validate:"required,gte=0,lte=100"`
}

// PowerPlantDTO is the wire form of one plant.
type PowerPlantDTO struct {
	Name       string   `json:"name" validate:"required"`
	Type       string   `json:"type" validate:"required"`
	Efficiency *float64 `json:"efficiency" validate:"required,gt=0,lte=1"`
	PMin       *int     `json:"pmin" validate:"required,gte=0"`
	PMax       *int     `json:"pmax" validate:"required,gte=0"`
}

// RequestDTO is the body of POST /productionplan.
type RequestDTO struct {
	Load   *float64        `json:"load" validate:"required,gte=0"`
	Fuels  *FuelsDTO       `json:"fuels" validate:"required"`
	Plants []PowerPlantDTO `json:"powerplants" validate:"required,unique=Name,dive"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterStructValidation(validatePlantBounds, PowerPlantDTO{})
	v.RegisterStructValidation(validateFuelPrices, RequestDTO{})
	return v
}

func validatePlantBounds(sl validator.StructLevel) {
	p := sl.Current().Interface().(PowerPlantDTO)
	if p.PMin != nil && p.PMax != nil && *p.PMax < *p.PMin {
		sl.ReportError(*p.PMax, "pmax", "PMax", "gtefield", "pmin")
	}
}

// validateFuelPrices requires the price of every fuel burnt by the fleet.
func validateFuelPrices(sl validator.StructLevel) {
	req := sl.Current().Interface().(RequestDTO)
	if req.Fuels == nil {
		return
	}
	fleet := make(map[model.FuelType]bool, 3)
	for _, p := range req.Plants {
		fleet[model.FuelType(p.Type)] = true
	}
	if fleet[model.FuelGas] && req.Fuels.Gas == nil {
		sl.ReportError(req.Fuels.Gas, "fuels.gas(euro/MWh)", "Gas", "required", "")
	}
	if fleet[model.FuelTurbojet] && req.Fuels.Kerosine == nil {
		sl.ReportError(req.Fuels.Kerosine, "fuels.kerosine(euro/MWh)", "Kerosine", "required", "")
	}
}

// ToModel converts a validated request into the planner input.
func (r RequestDTO) ToModel() model.PlanRequest {
	out := model.PlanRequest{
		Load:   deref(r.Load),
		Plants: make([]model.PowerPlant, 0, len(r.Plants)),
	}
	if r.Fuels != nil {
		out.Fuels = model.Fuels{
			Gas:         deref(r.Fuels.Gas),
			Kerosine:    deref(r.Fuels.Kerosine),
			CO2:         deref(r.Fuels.CO2),
			WindPercent: deref(r.Fuels.Wind),
		}
	}
	for _, p := range r.Plants {
		out.Plants = append(out.Plants, model.PowerPlant{
			Name:       p.Name,
			Type:       model.FuelType(p.Type),
			Efficiency: deref(p.Efficiency),
			PMin:       deref(p.PMin),
			PMax:       deref(p.PMax),
		})
	}
	return out
}

func deref[T any](v *T) T {
	var zero T
	if v == nil {
		return zero
	}
	return *v
}

var errTrailingData = errors.New("unexpected data after the JSON body")

func isSyntaxError(err error) bool {
	var synErr *json.SyntaxError
	return errors.As(err, &synErr)
}

// DecodeRequest reads and validates a planning request. Errors are returned
// as *Error values carrying the HTTP status to answer with.
func DecodeRequest(r io.Reader) (model.PlanRequest, error) {
	var dto RequestDTO
	dec := json.NewDecoder(r)
	err := dec.Decode(&dto)
	if err == nil {
		if _, terr := dec.Token(); terr != io.EOF {
			err = errTrailingData
			if terr != nil && !isSyntaxError(terr) {
				err = terr
			}
		}
	}
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return model.PlanRequest{}, NewError(http.StatusRequestEntityTooLarge, CodeTooLarge,
				fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
		}
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return model.PlanRequest{}, Unprocessable([]FieldError{{
				Loc:  location(typeErr.Field),
				Msg:  fmt.Sprintf("value is not a valid %s", typeErr.Type),
				Type: "type_error." + typeErr.Type.Kind().String(),
			}})
		}
		return model.PlanRequest{}, BadRequest(fmt.Sprintf("invalid JSON body: %v", err))
	}
	if err := validate.Struct(dto); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return model.PlanRequest{}, Unprocessable(fieldErrors(verrs))
		}
		return model.PlanRequest{}, BadRequest(err.Error())
	}
	return dto.ToModel(), nil
}

func fieldErrors(verrs validator.ValidationErrors) []FieldError {
	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		ns := fe.Namespace()
		// drop the root struct name
		if _, rest, ok := strings.Cut(ns, "."); ok {
			ns = rest
		}
		out = append(out, FieldError{Loc: location(ns), Msg: message(fe), Type: errorType(fe)})
	}
	return out
}

// location turns "powerplants[2].pmax" into ["body", "powerplants", 2, "pmax"].
func location(path string) []any {
	loc := []any{"body"}
	if path == "" {
		return loc
	}
	for _, seg := range strings.Split(path, ".") {
		name, idx, indexed := strings.Cut(seg, "[")
		loc = append(loc, name)
		if indexed {
			if i, err := strconv.Atoi(strings.TrimSuffix(idx, "]")); err == nil {
				loc = append(loc, i)
			}
		}
	}
	return loc
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "field required"
	case "gt":
		return "ensure this value is greater than " + fe.Param()
	case "gte":
		return "ensure this value is greater than or equal to " + fe.Param()
	case "lte":
		return "ensure this value is less than or equal to " + fe.Param()
	case "gtefield":
		return "ensure this value is greater than or equal to " + fe.Param()
	case "unique":
		return "plant names must be unique"
	default:
		return fmt.Sprintf("failed on the %q rule", fe.Tag())
	}
}

func errorType(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "value_error.missing"
	case "gt":
		return "value_error.number.not_gt"
	case "gte", "gtefield":
		return "value_error.number.not_ge"
	case "lte":
		return "value_error.number.not_le"
	case "unique":
		return "value_error.list.unique_items"
	default:
		return "value_error." + fe.Tag()
	}
}
