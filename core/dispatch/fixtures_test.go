package dispatch

import "github.com/kilianp07/powerplan/core/model"

func standardFuels() model.Fuels {
	return model.Fuels{Gas: 13.4, Kerosine: 50.8, CO2: 20, WindPercent: 60}
}

func standardFleet() []model.PowerPlant {
	return []model.PowerPlant{
		{Name: "gasfiredbig1", Type: model.FuelGas, Efficiency: 0.53, PMin: 100, PMax: 460},
		{Name: "gasfiredbig2", Type: model.FuelGas, Efficiency: 0.53, PMin: 100, PMax: 460},
		{Name: "gasfiredsomewhatsmaller", Type: model.FuelGas, Efficiency: 0.37, PMin: 40, PMax: 210},
		{Name: "tj1", Type: model.FuelTurbojet, Efficiency: 0.3, PMin: 0, PMax: 16},
		{Name: "windpark1", Type: model.FuelWind, Efficiency: 1, PMin: 0, PMax: 150},
		{Name: "windpark2", Type: model.FuelWind, Efficiency: 1, PMin: 0, PMax: 36},
	}
}

func standardRequest(load float64) model.PlanRequest {
	return model.PlanRequest{Load: load, Fuels: standardFuels(), Plants: standardFleet()}
}

func rowNames(rows []DispatchRow) []string {
	names := make([]string, len(rows))
	for i, r := range rows {
		names[i] = r.Plant.Name
	}
	return names
}
