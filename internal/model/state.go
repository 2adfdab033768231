package model

import (
	"strconv"
	"time"
)

// FieldCount is the number of positional fields in an OpenSky state vector.
const FieldCount = 17

// StateVector is one observed aircraft state, decoded from the positional
// array format of the OpenSky /states/all endpoint.
type StateVector struct {
	ICAO24         string         `json:"icao24"`
	Callsign       *string        `json:"callsign"`
	OriginCountry  string         `json:"origin_country"`
	TimePosition   *int64         `json:"time_position"`
	LastContact    int64          `json:"last_contact"`
	Longitude      *float64       `json:"longitude"`
	Latitude       *float64       `json:"latitude"`
	BaroAltitude   *float64       `json:"baro_altitude"`
	OnGround       bool           `json:"on_ground"`
	Velocity       *float64       `json:"velocity"`
	TrueTrack      *float64       `json:"true_track"`
	VerticalRate   *float64       `json:"vertical_rate"`
	Sensors        []int          `json:"sensors"`
	GeoAltitude    *float64       `json:"geo_altitude"`
	Squawk         *string        `json:"squawk"`
	SPI            bool           `json:"spi"`
	PositionSource PositionSource `json:"position_source"`

	// Fields is the number of positional fields the source element carried,
	// capped at FieldCount. Columns at or past Fields are absent.
	Fields int `json:"-"`
}

// Has reports whether the source element carried the field at index i.
func (s *StateVector) Has(i int) bool {
	return i >= 0 && i < s.Fields
}

// StateResponse is a decoded /states/all document.
type StateResponse struct {
	Time   int64
	States []StateVector
}

// PositionSource is the origin of a state vector's position.
type PositionSource int

const (
	SourceADSB PositionSource = iota
	SourceASTERIX
	SourceMLAT
	SourceFLARM
)

func (p PositionSource) String() string {
	switch p {
	case SourceADSB:
		return "ADS-B"
	case SourceASTERIX:
		return "ASTERIX"
	case SourceMLAT:
		return "MLAT"
	case SourceFLARM:
		return "FLARM"
	default:
		return "unknown(" + strconv.Itoa(int(p)) + ")"
	}
}

// Row is one display row: FieldCount formatted cells in column order.
type Row []string

// Snapshot is the last raw payload and when it was captured.
type Snapshot struct {
	Payload    []byte
	CapturedAt time.Time
}
