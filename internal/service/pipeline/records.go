package pipeline

import (
	"github.com/mamadbah2/fuelsync/internal/domain/models"
	"github.com/mamadbah2/fuelsync/internal/service/transform"
)

// fuelRecords builds typed fuel records from raw API maps. Values that cannot
// be coerced become zero or empty; an empty key field keeps the record out of
// the join instead of failing the run.
func fuelRecords(raw []map[string]any) []models.FuelRecord {
	out := make([]models.FuelRecord, 0, len(raw))
	for _, r := range raw {
		out = append(out, models.FuelRecord{
			ID:               transform.Text(r["id"]),
			FlightNumber:     transform.Text(r["flightNumber"]),
			DateOfFlight:     transform.DateValue(r["dateOfFlight"]),
			TimeOfDeparture:  transform.TimeOfDay(r["timeOfDeparture"]),
			DepartureAirport: transform.Text(r["departureAirport"]),
			ArrivalAirport:   transform.Text(r["arrivalAirport"]),
			TaxiFuel:         quantity(r["taxiFuel"]),
			TripFuel:         quantity(r["tripFuel"]),
			ContingencyFuel:  quantity(r["contingencyFuel"]),
			BlockFuel:        quantity(r["blockFuel"]),
			ExtraFuel:        quantity(r["extraFuel"]),
			UpliftVolume:     quantity(r["upliftVolume"]),
			UpliftDensity:    quantity(r["upliftDensity"]),
			BlockOn:          transform.Text(r["blockOn"]),
			BlockOff:         transform.Text(r["blockOff"]),
			PilotID:          transform.Text(r["pilotId"]),
		})
	}
	return out
}

// flightRecords is the flight counterpart of fuelRecords. Optional
// quantities stay nil when absent or non-numeric.
func flightRecords(raw []map[string]any) []models.FlightRecord {
	out := make([]models.FlightRecord, 0, len(raw))
	for _, r := range raw {
		out = append(out, models.FlightRecord{
			ID:                         transform.Text(r["id"]),
			FlightID:                   transform.Text(r["flightID"]),
			DateOfOperationUTC:         transform.DateValue(r["dateOfOperationUTC"]),
			ACRegistration:             transform.Text(r["acRegistration"]),
			ICAOCallSign:               transform.Text(r["icaoCallSign"]),
			ACType:                     transform.Text(r["acType"]),
			Company:                    transform.Text(r["company"]),
			FlightType:                 transform.Text(r["flightType"]),
			DepartingAirportICAOCode:   transform.Text(r["departingAirportICAOCode"]),
			DepartureTimeUTC:           transform.TimeOfDay(r["departureTimeUTC"]),
			DestinationAirportICAOCode: transform.Text(r["destinationAirportICAOCode"]),
			ArrivalTimeUTC:             transform.TimeOfDay(r["arrivalTimeUTC"]),
			UpliftVolumeLitres:         optionalQuantity(r["upliftVolumeLitres"]),
			UpliftDensity:              optionalQuantity(r["upliftDensity"]),
			BlockOnTonnes:              optionalQuantity(r["blockOnTonnes"]),
			BlockOffTonnes:             optionalQuantity(r["blockOffTonnes"]),
		})
	}
	return out
}

func quantity(v any) float64 {
	n, _ := transform.Number(v)
	return n
}

func optionalQuantity(v any) *float64 {
	n, ok := transform.Number(v)
	if !ok {
		return nil
	}
	return &n
}
