package models

// FlightRecord is one flight operation entry. FlightID is unique in the store.
type FlightRecord struct {
	ID                         string   `json:"id,omitempty"`
	FlightID                   string   `json:"flightID"`
	DateOfOperationUTC         string   `json:"dateOfOperationUTC"`
	ACRegistration             string   `json:"acRegistration"`
	ICAOCallSign               string   `json:"icaoCallSign"`
	ACType                     string   `json:"acType"`
	Company                    string   `json:"company"`
	FlightType                 string   `json:"flightType"`
	DepartingAirportICAOCode   string   `json:"departingAirportICAOCode"`
	DepartureTimeUTC           string   `json:"departureTimeUTC"`
	DestinationAirportICAOCode string   `json:"destinationAirportICAOCode"`
	ArrivalTimeUTC             string   `json:"arrivalTimeUTC"`
	UpliftVolumeLitres         *float64 `json:"upliftVolumeLitres,omitempty"`
	UpliftDensity              *float64 `json:"upliftDensity,omitempty"`
	BlockOnTonnes              *float64 `json:"blockOnTonnes,omitempty"`
	BlockOffTonnes             *float64 `json:"blockOffTonnes,omitempty"`
}
