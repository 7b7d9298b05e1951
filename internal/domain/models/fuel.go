package models

// FuelRecord is one fuel uplift/consumption entry.
type FuelRecord struct {
	ID               string  `json:"id,omitempty"`
	FlightNumber     string  `json:"flightNumber"`
	DateOfFlight     string  `json:"dateOfFlight"`
	TimeOfDeparture  string  `json:"timeOfDeparture"`
	DepartureAirport string  `json:"departureAirport"`
	ArrivalAirport   string  `json:"arrivalAirport"`
	TaxiFuel         float64 `json:"taxiFuel"`
	TripFuel         float64 `json:"tripFuel"`
	ContingencyFuel  float64 `json:"contingencyFuel"`
	BlockFuel        float64 `json:"blockFuel"`
	ExtraFuel        float64 `json:"extraFuel"`
	UpliftVolume     float64 `json:"upliftVolume"`
	UpliftDensity    float64 `json:"upliftDensity"`
	BlockOn          string  `json:"blockOn,omitempty"`
	BlockOff         string  `json:"blockOff,omitempty"`
	PilotID          string  `json:"pilotId,omitempty"`
}
