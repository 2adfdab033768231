package model

// Kind is the semantic type of a state vector column.
type Kind int

const (
	KindString Kind = iota
	KindNullableString
	KindInt
	KindNullableInt
	KindNullableFloat
	KindBool
	KindIntList
	KindEnum
)

// Column maps a positional index of the source array to a named field.
type Column struct {
	Index  int
	Name   string
	Header string
	Kind   Kind
}

// Columns is the ordinal-to-name table for the state vector schema. Parsing
// and projection both walk this table, so appended upstream columns are
// ignored instead of shifting existing ones.
var Columns = [FieldCount]Column{
	{0, "icao24", "ICAO24 address", KindString},
	{1, "callsign", "Callsign", KindNullableString},
	{2, "origin_country", "Origin Country", KindString},
	{3, "time_position", "Time Position", KindNullableInt},
	{4, "last_contact", "Last Contact", KindInt},
	{5, "longitude", "Longitude", KindNullableFloat},
	{6, "latitude", "Latitude", KindNullableFloat},
	{7, "baro_altitude", "Barometric Altitude", KindNullableFloat},
	{8, "on_ground", "On Ground", KindBool},
	{9, "velocity", "Velocity", KindNullableFloat},
	{10, "true_track", "Heading", KindNullableFloat},
	{11, "vertical_rate", "Vertical Rate", KindNullableFloat},
	{12, "sensors", "Sensors", KindIntList},
	{13, "geo_altitude", "Geometric Altitude", KindNullableFloat},
	{14, "squawk", "Squawk", KindNullableString},
	{15, "spi", "SPI", KindBool},
	{16, "position_source", "Position Source", KindEnum},
}

// Headers returns the display header labels in column order.
func Headers() []string {
	h := make([]string, FieldCount)
	for i, c := range Columns {
		h[i] = c.Header
	}
	return h
}
