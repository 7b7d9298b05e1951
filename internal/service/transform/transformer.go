package transform

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/mamadbah2/fuelsync/internal/domain/models"
)

// Kind tells the transformer how to normalize a column.
type Kind int

const (
	KindText Kind = iota
	KindNumber
	KindTimeOfDay
	KindDate
	// KindSum adds up already normalized number columns listed in Sum.
	KindSum
	// KindStamp keeps an existing value and otherwise fills the run timestamp.
	KindStamp
)

// Column maps one output field. Sources are tried in order; the output key
// is always tried first so transformed rows can be transformed again.
type Column struct {
	Key     string
	Sources []string
	Kind    Kind
	// ZeroDefault makes missing or non-numeric values 0 instead of "".
	ZeroDefault bool
	Sum         []string
}

// Row is a flat record ready for serialization.
type Row map[string]any

// Table is an ordered set of rows sharing the same columns.
type Table struct {
	Columns []string
	Rows    []Row
}

// Len returns the number of rows.
func (t Table) Len() int { return len(t.Rows) }

// Values returns the rows as positional cells in column order.
func (t Table) Values() [][]any {
	out := make([][]any, 0, len(t.Rows))
	for _, row := range t.Rows {
		cells := make([]any, len(t.Columns))
		for i, col := range t.Columns {
			cells[i] = row[col]
		}
		out = append(out, cells)
	}
	return out
}

// Records returns the rows in the generic record shape, so a table can be fed
// back into a transformer.
func (t Table) Records() []map[string]any {
	out := make([]map[string]any, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = map[string]any(row)
	}
	return out
}

// Transformer normalizes raw records according to a column layout.
type Transformer struct {
	columns []Column
	now     func() time.Time
}

// New builds a transformer for the given column layout.
func New(columns []Column) *Transformer {
	return &Transformer{columns: columns, now: time.Now}
}

// ForCategory returns the transformer used for a category.
func ForCategory(category models.Category) (*Transformer, error) {
	switch category {
	case models.CategoryFuel:
		return New(FuelColumns), nil
	case models.CategoryFlight:
		return New(FlightColumns), nil
	case models.CategoryMerged:
		return New(MergedColumns), nil
	default:
		return nil, fmt.Errorf("no column layout for category %q", category)
	}
}

// WithClock overrides the timestamp source used by KindStamp columns.
func (t *Transformer) WithClock(now func() time.Time) *Transformer {
	t.now = now
	return t
}

// Apply transforms every record. All rows of one call share the same stamp.
func (t *Transformer) Apply(records []map[string]any) Table {
	stamp := t.now().UTC().Format(time.RFC3339)

	table := Table{Columns: make([]string, len(t.columns)), Rows: make([]Row, 0, len(records))}
	for i, col := range t.columns {
		table.Columns[i] = col.Key
	}

	for _, record := range records {
		row := make(Row, len(t.columns))
		for _, col := range t.columns {
			row[col.Key] = t.value(col, record, row, stamp)
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}

func (t *Transformer) value(col Column, record map[string]any, row Row, stamp string) any {
	switch col.Kind {
	case KindSum:
		var total float64
		for _, key := range col.Sum {
			if n, ok := row[key].(float64); ok {
				total += n
			}
		}
		return round3(total)
	case KindStamp:
		if s := Text(lookup(record, col)); s != "" {
			return s
		}
		return stamp
	}

	raw := lookup(record, col)
	switch col.Kind {
	case KindNumber:
		if n, ok := Number(raw); ok {
			return round3(n)
		}
		if col.ZeroDefault {
			return 0.0
		}
		return ""
	case KindTimeOfDay:
		return TimeOfDay(raw)
	case KindDate:
		return DateValue(raw)
	default:
		if n, ok := raw.(float64); ok {
			return round3(n)
		}
		return Text(raw)
	}
}

func lookup(record map[string]any, col Column) any {
	if v, ok := record[col.Key]; ok && v != nil {
		return v
	}
	for _, source := range col.Sources {
		if v, ok := record[source]; ok && v != nil {
			return v
		}
	}
	return nil
}

// Text trims a value and maps nil and "N/A" to "".
func Text(value any) string {
	if value == nil {
		return ""
	}
	var s string
	switch v := value.(type) {
	case string:
		s = v
	case float64:
		s = strconv.FormatFloat(round3(v), 'f', -1, 64)
	case bool:
		s = strconv.FormatBool(v)
	default:
		s = fmt.Sprint(v)
	}
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "N/A") {
		return ""
	}
	return s
}

// Number coerces a JSON value to a float. Booleans and free text are not numbers.
func Number(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, !math.IsNaN(v) && !math.IsInf(v, 0)
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// spreadsheetEpoch is day zero of spreadsheet serial dates.
var spreadsheetEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// dateLayouts are the calendar date prefixes accepted in "date time" strings.
var dateLayouts = []string{"2006-01-02", "02/01/2006", "2006/01/02", "02-01-2006", "02.01.2006"}

// TimeOfDay extracts "HH:MM:SS" from a serial number or drops the date part
// of a "date time" string. The prefix is only dropped when it is a date or
// the remainder is a clock time, so a value like "10:30 AM" is kept whole.
func TimeOfDay(value any) string {
	if n, ok := value.(float64); ok {
		ms := math.Round(n * 86400 * 1000)
		t := spreadsheetEpoch.Add(time.Duration(ms) * time.Millisecond)
		return t.UTC().Format("15:04:05")
	}
	s := Text(value)
	i := strings.IndexByte(s, ' ')
	if i < 0 {
		return s
	}
	prefix, rest := s[:i], strings.TrimSpace(s[i+1:])
	if isDate(prefix) || isClock(rest) {
		return rest
	}
	return s
}

func isDate(s string) bool {
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}

func isClock(s string) bool {
	for _, layout := range []string{"15:04", "15:04:05"} {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}

// DateValue normalizes RFC 3339 timestamps and serial numbers to
// "2006-01-02". Unparsable strings are kept as trimmed text.
func DateValue(value any) string {
	if n, ok := value.(float64); ok {
		days := math.Floor(n)
		return spreadsheetEpoch.AddDate(0, 0, int(days)).Format("2006-01-02")
	}
	s := Text(value)
	if s == "" {
		return ""
	}
	if _, err := time.Parse("2006-01-02", s); err == nil {
		return s
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC().Format("2006-01-02")
	}
	return s
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// ToRecords converts typed values (for example []models.MergedRow) into the
// generic record shape the transformer consumes.
func ToRecords(v any) ([]map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode records: %w", err)
	}
	var records []map[string]any
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	return records, nil
}
