package models

// MergedRow joins one fuel record with its matching flight record.
// It only lives for the duration of a pipeline run.
type MergedRow struct {
	FlightID           string  `json:"flightID"`
	DateOfOperationUTC string  `json:"dateOfOperationUTC"`
	TimeOfDeparture    string  `json:"timeOfDeparture"`
	DepartureAirport   string  `json:"departureAirport"`
	ArrivalAirport     string  `json:"arrivalAirport"`
	ACRegistration     string  `json:"acRegistration"`
	ICAOCallSign       string  `json:"icaoCallSign"`
	ACType             string  `json:"acType"`
	Company            string  `json:"company"`
	FlightType         string  `json:"flightType"`
	ArrivalTimeUTC     string  `json:"arrivalTimeUTC"`
	BlockOn            string  `json:"blockOn"`
	BlockOff           string  `json:"blockOff"`
	TaxiFuel           float64 `json:"taxiFuel"`
	TripFuel           float64 `json:"tripFuel"`
	ContingencyFuel    float64 `json:"contingencyFuel"`
	ExtraFuel          float64 `json:"extraFuel"`
	BlockFuel          float64 `json:"blockFuel"`
	UpliftVolume       float64 `json:"upliftVolume"`
	UpliftDensity      float64 `json:"upliftDensity"`
	PilotID            string  `json:"pilotId"`

	// FuelRecordID and FlightRecordID point back at the source documents.
	FuelRecordID   string `json:"fuelRecordId,omitempty"`
	FlightRecordID string `json:"flightRecordId,omitempty"`
}
