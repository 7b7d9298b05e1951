package transform

// FuelColumns is the export layout of fuel records.
var FuelColumns = []Column{
	{Key: "FlightNumber", Sources: []string{"flightNumber", "Flight Number"}},
	{Key: "DateOfFlight", Sources: []string{"dateOfFlight", "Date of Flight"}, Kind: KindDate},
	{Key: "TimeOfDeparture", Sources: []string{"timeOfDeparture", "Time of Departure"}, Kind: KindTimeOfDay},
	{Key: "DepartureAirport", Sources: []string{"departureAirport", "Departure Airport"}},
	{Key: "ArrivalAirport", Sources: []string{"arrivalAirport", "Arrival Airport"}},
	{Key: "TaxiFuel", Sources: []string{"taxiFuel", "Taxi Fuel"}, Kind: KindNumber, ZeroDefault: true},
	{Key: "TripFuel", Sources: []string{"tripFuel", "Trip Fuel"}, Kind: KindNumber, ZeroDefault: true},
	{Key: "ContingencyFuel", Sources: []string{"contingencyFuel", "Contingency Fuel"}, Kind: KindNumber, ZeroDefault: true},
	{Key: "BlockFuel", Sources: []string{"blockFuel", "Block Fuel"}, Kind: KindNumber, ZeroDefault: true},
	{Key: "ExtraFuel", Sources: []string{"extraFuel", "Extra Fuel"}, Kind: KindNumber, ZeroDefault: true},
	{Key: "TotalFuel", Kind: KindSum, Sum: []string{"TaxiFuel", "TripFuel", "ContingencyFuel"}},
	{Key: "UpliftVolume", Sources: []string{"upliftVolume", "Uplift Volume"}, Kind: KindNumber, ZeroDefault: true},
	{Key: "UpliftDensity", Sources: []string{"upliftDensity", "Uplift Density"}, Kind: KindNumber, ZeroDefault: true},
	{Key: "FlightDuration", Sources: []string{"flightDuration"}, Kind: KindNumber, ZeroDefault: true},
	{Key: "Distance", Sources: []string{"distance"}, Kind: KindNumber, ZeroDefault: true},
	{Key: "UpdatedAt", Kind: KindStamp},
}

// FlightColumns is the export layout of flight records.
var FlightColumns = []Column{
	{Key: "FlightID", Sources: []string{"flightID", "Flight ID"}},
	{Key: "DateOfOperationUTC", Sources: []string{"dateOfOperationUTC", "Date of operation (UTC)"}, Kind: KindDate},
	{Key: "ACRegistration", Sources: []string{"acRegistration", "AC registration"}},
	{Key: "ICAOCallSign", Sources: []string{"icaoCallSign", "ICAO Call sign"}},
	{Key: "ACType", Sources: []string{"acType", "AC Type"}},
	{Key: "Company", Sources: []string{"company"}},
	{Key: "FlightType", Sources: []string{"flightType", "Flight type"}},
	{Key: "DepartureAirport", Sources: []string{"departingAirportICAOCode", "DepartureAirport"}},
	{Key: "DepartureTimeUTC", Sources: []string{"departureTimeUTC", "Departure Time/ Block-off time (UTC)"}, Kind: KindTimeOfDay},
	{Key: "DestinationAirport", Sources: []string{"destinationAirportICAOCode", "ArrivalAirport"}},
	{Key: "ArrivalTimeUTC", Sources: []string{"arrivalTimeUTC", "Arrival Time/ Block-on Time(UTC)"}, Kind: KindTimeOfDay},
	{Key: "UpliftVolumeLitres", Sources: []string{"upliftVolumeLitres", "Uplift Volume (Litres)"}, Kind: KindNumber},
	{Key: "UpliftDensity", Sources: []string{"upliftDensity", "Uplift density"}, Kind: KindNumber},
	{Key: "BlockOnTonnes", Sources: []string{"blockOnTonnes", "Block On (tonnes)"}, Kind: KindNumber},
	{Key: "BlockOffTonnes", Sources: []string{"blockOffTonnes", "Block Off (tonnes)"}, Kind: KindNumber},
	{Key: "UpdatedAt", Kind: KindStamp},
}

// MergedColumns is the export layout of the reconciled view.
var MergedColumns = []Column{
	{Key: "FlightID", Sources: []string{"flightID"}},
	{Key: "DateOfOperationUTC", Sources: []string{"dateOfOperationUTC"}, Kind: KindDate},
	{Key: "TimeOfDeparture", Sources: []string{"timeOfDeparture"}, Kind: KindTimeOfDay},
	{Key: "DepartureAirport", Sources: []string{"departureAirport"}},
	{Key: "ArrivalAirport", Sources: []string{"arrivalAirport"}},
	{Key: "ACRegistration", Sources: []string{"acRegistration"}},
	{Key: "ICAOCallSign", Sources: []string{"icaoCallSign"}},
	{Key: "ACType", Sources: []string{"acType"}},
	{Key: "Company", Sources: []string{"company"}},
	{Key: "FlightType", Sources: []string{"flightType"}},
	{Key: "ArrivalTimeUTC", Sources: []string{"arrivalTimeUTC"}, Kind: KindTimeOfDay},
	{Key: "BlockOn", Sources: []string{"blockOn"}},
	{Key: "BlockOff", Sources: []string{"blockOff"}},
	{Key: "TaxiFuel", Sources: []string{"taxiFuel"}, Kind: KindNumber, ZeroDefault: true},
	{Key: "TripFuel", Sources: []string{"tripFuel"}, Kind: KindNumber, ZeroDefault: true},
	{Key: "ContingencyFuel", Sources: []string{"contingencyFuel"}, Kind: KindNumber, ZeroDefault: true},
	{Key: "ExtraFuel", Sources: []string{"extraFuel"}, Kind: KindNumber, ZeroDefault: true},
	{Key: "BlockFuel", Sources: []string{"blockFuel"}, Kind: KindNumber, ZeroDefault: true},
	{Key: "UpliftVolume", Sources: []string{"upliftVolume"}, Kind: KindNumber, ZeroDefault: true},
	{Key: "UpliftDensity", Sources: []string{"upliftDensity"}, Kind: KindNumber, ZeroDefault: true},
	{Key: "PilotID", Sources: []string{"pilotId"}},
	{Key: "UpdatedAt", Kind: KindStamp},
}
