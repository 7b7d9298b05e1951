package mongodb

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/mamadbah2/fuelsync/internal/domain/models"
)

type fuelDocument struct {
	ID               primitive.ObjectID `bson:"_id"`
	FlightNumber     string             `bson:"flightNumber"`
	DateOfFlight     any                `bson:"dateOfFlight"`
	TimeOfDeparture  string             `bson:"timeOfDeparture"`
	DepartureAirport string             `bson:"departureAirport"`
	ArrivalAirport   string             `bson:"arrivalAirport"`
	TaxiFuel         float64            `bson:"taxiFuel"`
	TripFuel         float64            `bson:"tripFuel"`
	ContingencyFuel  float64            `bson:"contingencyFuel"`
	BlockFuel        float64            `bson:"blockFuel"`
	ExtraFuel        float64            `bson:"extraFuel"`
	UpliftVolume     float64            `bson:"upliftVolume"`
	UpliftDensity    float64            `bson:"upliftDensity"`
	BlockOn          any                `bson:"blockOn"`
	BlockOff         any                `bson:"blockOff"`
	PilotID          string             `bson:"pilotId"`
}

type flightDocument struct {
	ID                         primitive.ObjectID `bson:"_id"`
	FlightID                   string             `bson:"flightID"`
	DateOfOperationUTC         any                `bson:"dateOfOperationUTC"`
	ACRegistration             string             `bson:"acRegistration"`
	ICAOCallSign               string             `bson:"icaoCallSign"`
	ACType                     string             `bson:"acType"`
	Company                    string             `bson:"company"`
	FlightType                 string             `bson:"flightType"`
	DepartingAirportICAOCode   string             `bson:"departingAirportICAOCode"`
	DepartureTimeUTC           string             `bson:"departureTimeUTC"`
	DestinationAirportICAOCode string             `bson:"destinationAirportICAOCode"`
	ArrivalTimeUTC             string             `bson:"arrivalTimeUTC"`
	UpliftVolumeLitres         *float64           `bson:"upliftVolumeLitres"`
	UpliftDensity              *float64           `bson:"upliftDensity"`
	BlockOnTonnes              *float64           `bson:"blockOnTonnes"`
	BlockOffTonnes             *float64           `bson:"blockOffTonnes"`
}

// ListFuelRecords returns every fuel record in natural store order.
func (r *MongoDBRepository) ListFuelRecords(ctx context.Context) ([]models.FuelRecord, error) {
	var docs []fuelDocument
	if err := findAll(ctx, r.fuel, &docs); err != nil {
		return nil, fmt.Errorf("list fuel records: %w", err)
	}

	records := make([]models.FuelRecord, 0, len(docs))
	for _, doc := range docs {
		records = append(records, doc.toModel())
	}
	r.logger.Debug("fuel records loaded", zap.Int("count", len(records)))
	return records, nil
}

// ListFlightRecords returns every flight record in natural store order.
func (r *MongoDBRepository) ListFlightRecords(ctx context.Context) ([]models.FlightRecord, error) {
	var docs []flightDocument
	if err := findAll(ctx, r.flights, &docs); err != nil {
		return nil, fmt.Errorf("list flight records: %w", err)
	}

	records := make([]models.FlightRecord, 0, len(docs))
	for _, doc := range docs {
		records = append(records, doc.toModel())
	}
	r.logger.Debug("flight records loaded", zap.Int("count", len(records)))
	return records, nil
}

func findAll[T any](ctx context.Context, coll *mongo.Collection, out *[]T) error {
	cur, err := coll.Find(ctx, bson.D{})
	if err != nil {
		return err
	}
	return cur.All(ctx, out)
}

func (d fuelDocument) toModel() models.FuelRecord {
	return models.FuelRecord{
		ID:               objectID(d.ID),
		FlightNumber:     strings.TrimSpace(d.FlightNumber),
		DateOfFlight:     dateString(d.DateOfFlight),
		TimeOfDeparture:  strings.TrimSpace(d.TimeOfDeparture),
		DepartureAirport: strings.TrimSpace(d.DepartureAirport),
		ArrivalAirport:   strings.TrimSpace(d.ArrivalAirport),
		TaxiFuel:         d.TaxiFuel,
		TripFuel:         d.TripFuel,
		ContingencyFuel:  d.ContingencyFuel,
		BlockFuel:        d.BlockFuel,
		ExtraFuel:        d.ExtraFuel,
		UpliftVolume:     d.UpliftVolume,
		UpliftDensity:    d.UpliftDensity,
		BlockOn:          scalarString(d.BlockOn),
		BlockOff:         scalarString(d.BlockOff),
		PilotID:          d.PilotID,
	}
}

func (d flightDocument) toModel() models.FlightRecord {
	return models.FlightRecord{
		ID:                         objectID(d.ID),
		FlightID:                   strings.TrimSpace(d.FlightID),
		DateOfOperationUTC:         dateString(d.DateOfOperationUTC),
		ACRegistration:             d.ACRegistration,
		ICAOCallSign:               d.ICAOCallSign,
		ACType:                     d.ACType,
		Company:                    d.Company,
		FlightType:                 d.FlightType,
		DepartingAirportICAOCode:   strings.TrimSpace(d.DepartingAirportICAOCode),
		DepartureTimeUTC:           strings.TrimSpace(d.DepartureTimeUTC),
		DestinationAirportICAOCode: strings.TrimSpace(d.DestinationAirportICAOCode),
		ArrivalTimeUTC:             strings.TrimSpace(d.ArrivalTimeUTC),
		UpliftVolumeLitres:         d.UpliftVolumeLitres,
		UpliftDensity:              d.UpliftDensity,
		BlockOnTonnes:              d.BlockOnTonnes,
		BlockOffTonnes:             d.BlockOffTonnes,
	}
}

func objectID(id primitive.ObjectID) string {
	if id.IsZero() {
		return ""
	}
	return id.Hex()
}

// dateString renders stored dates as UTC calendar dates. Strings are kept
// verbatim so malformed values surface during reconciliation.
func dateString(value any) string {
	switch v := value.(type) {
	case primitive.DateTime:
		return v.Time().UTC().Format("2006-01-02")
	case time.Time:
		return v.UTC().Format("2006-01-02")
	case string:
		return strings.TrimSpace(v)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func scalarString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return fmt.Sprint(v)
	}
}
