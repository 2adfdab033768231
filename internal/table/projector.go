package table

import (
	"strconv"
	"strings"

	"flight-state-table/internal/model"
)

// Tokens used for boolean cells.
const (
	TrueToken  = "true"
	FalseToken = "false"
)

// Project maps state vectors to display rows in input order. It is total over
// any input, including nil.
func Project(states []model.StateVector) []model.Row {
	rows := make([]model.Row, 0, len(states))
	for i := range states {
		rows = append(rows, ProjectOne(&states[i]))
	}
	return rows
}

// ProjectOne formats a single state vector as a row of model.FieldCount cells.
// Absent and null fields render as empty cells.
func ProjectOne(sv *model.StateVector) model.Row {
	row := make(model.Row, model.FieldCount)
	for _, col := range model.Columns {
		if !sv.Has(col.Index) {
			continue
		}
		row[col.Index] = cell(sv, col.Index)
	}
	return row
}

func cell(sv *model.StateVector, index int) string {
	switch index {
	case 0:
		return sv.ICAO24
	case 1:
		return formatString(sv.Callsign)
	case 2:
		return sv.OriginCountry
	case 3:
		return formatInt(sv.TimePosition)
	case 4:
		return strconv.FormatInt(sv.LastContact, 10)
	case 5:
		return formatFloat(sv.Longitude)
	case 6:
		return formatFloat(sv.Latitude)
	case 7:
		return formatFloat(sv.BaroAltitude)
	case 8:
		return formatBool(sv.OnGround)
	case 9:
		return formatFloat(sv.Velocity)
	case 10:
		return formatFloat(sv.TrueTrack)
	case 11:
		return formatFloat(sv.VerticalRate)
	case 12:
		return formatInts(sv.Sensors)
	case 13:
		return formatFloat(sv.GeoAltitude)
	case 14:
		return formatString(sv.Squawk)
	case 15:
		return formatBool(sv.SPI)
	case 16:
		return strconv.Itoa(int(sv.PositionSource))
	}
	return ""
}

func formatString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatInt(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}

// formatFloat renders the shortest decimal that round-trips, never in
// exponent form.
func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func formatBool(b bool) string {
	if b {
		return TrueToken
	}
	return FalseToken
}

func formatInts(v []int) string {
	if v == nil {
		return ""
	}
	parts := make([]string, len(v))
	for i, n := range v {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}
