package compgraph

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/mmorozov/compgraph/function"
	"github.com/mmorozov/compgraph/rowvalue"
)

// Mapper transforms a single row into zero or more output rows.
type Mapper interface {
	Map(row Row) ([]Row, error)
}

// Identity yields the input row unchanged.
type Identity struct{}

func (Identity) Map(row Row) ([]Row, error) {
	return []Row{row}, nil
}

// FilterPunctuation removes ASCII punctuation characters from the string
// held in Column.
type FilterPunctuation struct {
	Column string
}

const asciiPunctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

func (m FilterPunctuation) Map(row Row) ([]Row, error) {
	value, ok := row[m.Column].(string)
	if !ok {
		if _, present := row[m.Column]; !present {
			return nil, errKeyMissing(m.Column)
		}
		return nil, errType(m.Column, row[m.Column])
	}

	out := row.Clone()
	out[m.Column] = strings.Map(func(r rune) rune {
		if strings.ContainsRune(asciiPunctuation, r) {
			return -1
		}
		return r
	}, value)
	return []Row{out}, nil
}

// LowerCase lowercases the string held in Column, using Unicode-aware
// lowercasing (golang.org/x/text/cases) rather than byte-wise ASCII
// lowercasing.
type LowerCase struct {
	Column string
}

var lowerCaser = cases.Lower(language.Und)

func (m LowerCase) Map(row Row) ([]Row, error) {
	value, ok := row[m.Column].(string)
	if !ok {
		if _, present := row[m.Column]; !present {
			return nil, errKeyMissing(m.Column)
		}
		return nil, errType(m.Column, row[m.Column])
	}

	out := row.Clone()
	out[m.Column] = lowerCaser.String(value)
	return []Row{out}, nil
}

// Split splits row[Column] by the regular expression Separator (default
// \s, i.e. one whitespace character) and yields one row per non-empty,
// whitespace-trimmed token, each a copy of row with Column replaced by the
// token. If Column is absent from row, Split is tolerant and yields row
// unchanged.
type Split struct {
	Column    string
	Separator string // defaults to `\s` when empty
}

func (m Split) Map(row Row) ([]Row, error) {
	raw, present := row[m.Column]
	if !present {
		return []Row{row}, nil
	}
	value, ok := raw.(string)
	if !ok {
		return nil, errType(m.Column, raw)
	}

	sep := m.Separator
	if sep == "" {
		sep = `\s`
	}
	pattern, err := regexp.Compile(sep)
	if err != nil {
		return nil, fmt.Errorf("compgraph: invalid Split separator %q: %w", sep, err)
	}

	var out []Row
	lastEnd := 0
	for _, loc := range pattern.FindAllStringIndex(value, -1) {
		start, end := loc[0], loc[1]
		if start != 0 {
			token := strings.TrimSpace(value[lastEnd:start])
			if token != "" {
				row2 := row.Clone()
				row2[m.Column] = token
				out = append(out, row2)
			}
		}
		lastEnd = end
	}
	if lastEnd < len(value) {
		token := strings.TrimSpace(value[lastEnd:])
		if token != "" {
			row2 := row.Clone()
			row2[m.Column] = token
			out = append(out, row2)
		}
	}
	return out, nil
}

// Product writes Out = the product of row[c] for c in Columns (1 if
// Columns is empty).
type Product struct {
	Columns []string
	Out     string
}

func (m Product) Map(row Row) ([]Row, error) {
	var product any = int64(1)
	for _, col := range m.Columns {
		value, present := row[col]
		if !present {
			return nil, errKeyMissing(col)
		}
		var err error
		product, err = rowvalue.Product(product, value)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w: %v", col, ErrType, err)
		}
	}

	out := row.Clone()
	out[m.Out] = product
	return []Row{out}, nil
}

// Filter yields row iff Condition(row) is true.
type Filter struct {
	Condition function.Predicate[Row]
}

func (m Filter) Map(row Row) ([]Row, error) {
	if m.Condition(row) {
		return []Row{row}, nil
	}
	return nil, nil
}

// Project yields a new row containing only those Columns present in the
// input row.
type Project struct {
	Columns []string
}

func (m Project) Map(row Row) ([]Row, error) {
	out := make(Row, len(m.Columns))
	for _, col := range m.Columns {
		if value, present := row[col]; present {
			out[col] = value
		}
	}
	return []Row{out}, nil
}

// Apply writes Out = F(row), a generic unary row transform.
type Apply struct {
	F   function.Function[Row, any]
	Out string
}

func (m Apply) Map(row Row) ([]Row, error) {
	out := row.Clone()
	out[m.Out] = m.F(row)
	return []Row{out}, nil
}

// HaversineDistance writes the great-circle distance, in kilometres,
// between the [lon, lat] degree pairs in Start and End to Out. Id names the
// edge-identifier column for callers that want to Project it alongside Out;
// HaversineDistance itself never reads it.
type HaversineDistance struct {
	Id    string
	Start string
	End   string
	Out   string
}

const earthRadiusKm = 6373.0

func (m HaversineDistance) Map(row Row) ([]Row, error) {
	start, err := coordPair(row, m.Start)
	if err != nil {
		return nil, err
	}
	end, err := coordPair(row, m.End)
	if err != nil {
		return nil, err
	}

	lon1, lat1 := toRadians(start[0]), toRadians(start[1])
	lon2, lat2 := toRadians(end[0]), toRadians(end[1])

	latSin := math.Sin((lat2 - lat1) / 2)
	lonSin := math.Sin((lon2 - lon1) / 2)
	angle := math.Sqrt(latSin*latSin + math.Cos(lat1)*math.Cos(lat2)*lonSin*lonSin)

	out := row.Clone()
	out[m.Out] = 2 * earthRadiusKm * math.Asin(angle)
	return []Row{out}, nil
}

func coordPair(row Row, column string) ([2]float64, error) {
	raw, present := row[column]
	if !present {
		return [2]float64{}, errKeyMissing(column)
	}
	coords, ok := raw.([]any)
	if !ok || len(coords) != 2 {
		return [2]float64{}, errType(column, raw)
	}
	var out [2]float64
	for i, c := range coords {
		f, ok := asFloat(c)
		if !ok {
			return [2]float64{}, errType(column, raw)
		}
		out[i] = f
	}
	return out, nil
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// TravelTimeParts parses timestamps of the form YYYYMMDDThhmmss.ffffff held
// in Enter and Leave, and writes the 3-letter weekday abbreviation of the
// enter time to WeekdayOut, the enter hour to HourOut, and the duration
// leave-enter in hours to DurationOut.
type TravelTimeParts struct {
	Enter       string
	Leave       string
	WeekdayOut  string
	HourOut     string
	DurationOut string
}

const travelTimeLayout = "20060102T150405.000000"

func (m TravelTimeParts) Map(row Row) ([]Row, error) {
	enterRaw, ok := row[m.Enter].(string)
	if !ok {
		if _, present := row[m.Enter]; !present {
			return nil, errKeyMissing(m.Enter)
		}
		return nil, errType(m.Enter, row[m.Enter])
	}
	leaveRaw, ok := row[m.Leave].(string)
	if !ok {
		if _, present := row[m.Leave]; !present {
			return nil, errKeyMissing(m.Leave)
		}
		return nil, errType(m.Leave, row[m.Leave])
	}

	enter, err := time.Parse(travelTimeLayout, enterRaw)
	if err != nil {
		return nil, fmt.Errorf("column %q: %w: %v", m.Enter, ErrType, err)
	}
	leave, err := time.Parse(travelTimeLayout, leaveRaw)
	if err != nil {
		return nil, fmt.Errorf("column %q: %w: %v", m.Leave, ErrType, err)
	}

	out := row.Clone()
	out[m.WeekdayOut] = enter.Format("Mon")
	out[m.HourOut] = int64(enter.Hour())
	out[m.DurationOut] = leave.Sub(enter).Hours()
	return []Row{out}, nil
}
