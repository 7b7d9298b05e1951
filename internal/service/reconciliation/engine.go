package reconciliation

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/fuelsync/internal/domain/models"
)

// ErrDuplicateKey is returned under PolicyReject when two flight records share
// a composite key.
var ErrDuplicateKey = errors.New("duplicate flight composite key")

// DuplicatePolicy decides what happens when the flight side has more than one
// record for the same composite key.
type DuplicatePolicy string

const (
	// PolicyReject treats duplicate keys as a data-integrity violation.
	PolicyReject DuplicatePolicy = "reject"
	// PolicyFirst keeps the first flight in store iteration order.
	PolicyFirst DuplicatePolicy = "first"
)

const dateLayout = "2006-01-02"

// Key is the composite natural key shared by fuel and flight records.
type Key struct {
	FlightID         string
	Date             string
	DepartureTime    string
	DepartureAirport string
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s/%s/%s", k.FlightID, k.Date, k.DepartureTime, k.DepartureAirport)
}

// Duplicate describes one composite key held by several flight records.
type Duplicate struct {
	Key   Key
	Count int
}

// Result is the outcome of one reconciliation pass.
type Result struct {
	Rows       []models.MergedRow
	Unmatched  int
	Excluded   int // records skipped because a key field was malformed
	Duplicates []Duplicate
}

// Engine joins fuel and flight records on their composite key.
type Engine struct {
	policy DuplicatePolicy
	logger *zap.Logger
}

// NewEngine builds an engine. An unknown policy falls back to PolicyReject.
func NewEngine(policy DuplicatePolicy, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if policy != PolicyFirst {
		policy = PolicyReject
	}
	return &Engine{policy: policy, logger: logger}
}

// Reconcile returns one MergedRow per fuel record with a matching flight, in
// fuel input order. Flights are indexed first so the join is O(F+L).
func (e *Engine) Reconcile(fuel []models.FuelRecord, flights []models.FlightRecord) (Result, error) {
	var result Result

	index := make(map[Key]int, len(flights))
	counts := make(map[Key]int)
	var dupOrder []Key

	for i, flight := range flights {
		key, ok := FlightKey(flight)
		if !ok {
			result.Excluded++
			continue
		}
		counts[key]++
		if counts[key] == 2 {
			dupOrder = append(dupOrder, key)
		}
		if _, seen := index[key]; !seen {
			index[key] = i
		}
	}

	for _, key := range dupOrder {
		result.Duplicates = append(result.Duplicates, Duplicate{Key: key, Count: counts[key]})
	}

	if len(result.Duplicates) > 0 {
		if e.policy == PolicyReject {
			return Result{Duplicates: result.Duplicates}, fmt.Errorf("%w: %d keys, first %s", ErrDuplicateKey, len(result.Duplicates), result.Duplicates[0].Key)
		}
		e.logger.Warn("duplicate flight keys, keeping first match",
			zap.Int("keys", len(result.Duplicates)),
			zap.Stringer("first", result.Duplicates[0].Key))
	}

	result.Rows = make([]models.MergedRow, 0, len(fuel))
	for _, record := range fuel {
		key, ok := FuelKey(record)
		if !ok {
			result.Excluded++
			result.Unmatched++
			continue
		}
		i, found := index[key]
		if !found {
			result.Unmatched++
			continue
		}
		result.Rows = append(result.Rows, merge(record, flights[i], key))
	}

	e.logger.Debug("reconciliation complete",
		zap.Int("fuel", len(fuel)),
		zap.Int("flights", len(flights)),
		zap.Int("merged", len(result.Rows)),
		zap.Int("unmatched", result.Unmatched))

	return result, nil
}

// FuelKey extracts the composite key of a fuel record. The boolean is false
// when a key field is empty or malformed.
func FuelKey(r models.FuelRecord) (Key, bool) {
	return buildKey(r.FlightNumber, r.DateOfFlight, r.TimeOfDeparture, r.DepartureAirport)
}

// FlightKey extracts the composite key of a flight record.
func FlightKey(r models.FlightRecord) (Key, bool) {
	return buildKey(r.FlightID, r.DateOfOperationUTC, r.DepartureTimeUTC, r.DepartingAirportICAOCode)
}

func buildKey(id, date, departure, airport string) (Key, bool) {
	k := Key{
		FlightID:         strings.TrimSpace(id),
		DepartureTime:    strings.TrimSpace(departure),
		DepartureAirport: strings.TrimSpace(airport),
	}
	if k.FlightID == "" || k.DepartureAirport == "" || !validTime(k.DepartureTime) {
		return Key{}, false
	}
	d, ok := CalendarDate(date)
	if !ok {
		return Key{}, false
	}
	k.Date = d
	return k, true
}

// CalendarDate normalizes "2006-01-02" and RFC 3339 timestamps to a UTC
// calendar date.
func CalendarDate(value string) (string, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false
	}
	if t, err := time.Parse(dateLayout, value); err == nil {
		return t.Format(dateLayout), true
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t.UTC().Format(dateLayout), true
	}
	return "", false
}

func validTime(value string) bool {
	if _, err := time.Parse("15:04", value); err == nil {
		return true
	}
	_, err := time.Parse("15:04:05", value)
	return err == nil
}

func merge(fuel models.FuelRecord, flight models.FlightRecord, key Key) models.MergedRow {
	return models.MergedRow{
		FlightID:           flight.FlightID,
		DateOfOperationUTC: key.Date,
		TimeOfDeparture:    strings.TrimSpace(flight.DepartureTimeUTC),
		DepartureAirport:   strings.TrimSpace(fuel.DepartureAirport),
		ArrivalAirport:     strings.TrimSpace(fuel.ArrivalAirport),
		ACRegistration:     flight.ACRegistration,
		ICAOCallSign:       flight.ICAOCallSign,
		ACType:             flight.ACType,
		Company:            flight.Company,
		FlightType:         flight.FlightType,
		ArrivalTimeUTC:     flight.ArrivalTimeUTC,
		BlockOn:            fuel.BlockOn,
		BlockOff:           fuel.BlockOff,
		TaxiFuel:           fuel.TaxiFuel,
		TripFuel:           fuel.TripFuel,
		ContingencyFuel:    fuel.ContingencyFuel,
		ExtraFuel:          fuel.ExtraFuel,
		BlockFuel:          fuel.BlockFuel,
		UpliftVolume:       fuel.UpliftVolume,
		UpliftDensity:      fuel.UpliftDensity,
		PilotID:            fuel.PilotID,
		FuelRecordID:       fuel.ID,
		FlightRecordID:     flight.ID,
	}
}
