package mongodb

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mamadbah2/fuelsync/internal/domain/models"
)

func TestFuelDocumentDecode(t *testing.T) {
	id := primitive.NewObjectID()
	raw, err := bson.Marshal(bson.M{
		"_id":              id,
		"flightNumber":     " TU123 ",
		"dateOfFlight":     "2024-05-14",
		"timeOfDeparture":  "10:30",
		"departureAirport": "DTTA",
		"arrivalAirport":   "LFPG",
		"taxiFuel":         int32(200),
		"tripFuel":         5400.5,
		"blockOn":          12.5,
		"blockOff":         int32(0),
		"pilotId":          "P-7",
	})
	assert.NoError(t, err)

	var doc fuelDocument
	assert.NoError(t, bson.Unmarshal(raw, &doc))

	rec := doc.toModel()
	assert.Equal(t, id.Hex(), rec.ID)
	assert.Equal(t, "TU123", rec.FlightNumber)
	assert.Equal(t, "2024-05-14", rec.DateOfFlight)
	assert.Equal(t, 200.0, rec.TaxiFuel)
	assert.Equal(t, 5400.5, rec.TripFuel)
	assert.Zero(t, rec.ContingencyFuel)
	assert.Equal(t, "12.5", rec.BlockOn)
	assert.Equal(t, "0", rec.BlockOff)
}

func TestFlightDocumentDecode(t *testing.T) {
	// 23:30 UTC on the 13th is still the 13th as a UTC calendar date.
	when := time.Date(2024, 5, 13, 23, 30, 0, 0, time.UTC)
	raw, err := bson.Marshal(bson.M{
		"_id":                      primitive.NewObjectID(),
		"flightID":                 "TU123",
		"dateOfOperationUTC":       primitive.NewDateTimeFromTime(when),
		"departingAirportICAOCode": "DTTA",
		"departureTimeUTC":         "10:30",
		"upliftVolumeLitres":       nil,
		"blockOnTonnes":            6.2,
	})
	assert.NoError(t, err)

	var doc flightDocument
	assert.NoError(t, bson.Unmarshal(raw, &doc))

	rec := doc.toModel()
	assert.Equal(t, "2024-05-13", rec.DateOfOperationUTC)
	assert.Nil(t, rec.UpliftVolumeLitres)
	if assert.NotNil(t, rec.BlockOnTonnes) {
		assert.Equal(t, 6.2, *rec.BlockOnTonnes)
	}
}

func TestRunQuery(t *testing.T) {
	from := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	query, opts := runQuery(models.RunFilter{Limit: 500, Status: models.RunFailed, From: &from})

	assert.Equal(t, bson.D{
		{Key: "status", Value: models.RunFailed},
		{Key: "start_time", Value: bson.D{{Key: "$gte", Value: from}}},
	}, query)
	if assert.NotNil(t, opts.Limit) {
		assert.Equal(t, int64(100), *opts.Limit)
	}
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, 20, ClampLimit(0))
	assert.Equal(t, 1, ClampLimit(1))
	assert.Equal(t, 100, ClampLimit(101))
}
