// Package parser decodes OpenSky /states/all payloads into state vectors.
//
// Decoding is total over the positional schema: short elements leave
// trailing fields absent, mistyped values coerce to zero, and records are
// never filtered. Only a payload that is not a JSON object with a "states"
// array is rejected.
package parser

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"flight-state-table/internal/model"
)

// ErrMalformedPayload is returned when the payload is not a JSON object or
// lacks a "states" array.
var ErrMalformedPayload = errors.New("malformed payload")

// Parse decodes payload into state vectors in source order.
func Parse(payload []byte) ([]model.StateVector, error) {
	resp, err := ParseResponse(payload)
	if err != nil {
		return nil, err
	}
	return resp.States, nil
}

// ParseResponse decodes payload into a StateResponse. On error no states are
// returned.
func ParseResponse(payload []byte) (*model.StateResponse, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(payload, &top); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if top == nil {
		return nil, fmt.Errorf("%w: top level is not an object", ErrMalformedPayload)
	}

	states, ok := top["states"]
	if !ok {
		return nil, fmt.Errorf("%w: missing states key", ErrMalformedPayload)
	}

	elems, err := decodeStates(states)
	if err != nil {
		return nil, err
	}

	resp := &model.StateResponse{
		Time:   asInt(decodeValue(top["time"])),
		States: make([]model.StateVector, 0, len(elems)),
	}
	for _, elem := range elems {
		resp.States = append(resp.States, decodeState(elem))
	}
	return resp, nil
}

// decodeStates returns the elements of the states array. A JSON null is an
// empty container, which OpenSky sends when no aircraft match.
func decodeStates(raw json.RawMessage) ([]any, error) {
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var elems []any
	if err := dec.Decode(&elems); err != nil {
		return nil, fmt.Errorf("%w: states is not an array: %v", ErrMalformedPayload, err)
	}
	return elems, nil
}

func decodeValue(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil
	}
	return v
}

// decodeState maps one positional element onto a StateVector. Anything that
// is not an array decodes as a record with no fields.
func decodeState(elem any) model.StateVector {
	fields, _ := elem.([]any)

	var sv model.StateVector
	sv.Fields = min(len(fields), model.FieldCount)

	for _, col := range model.Columns[:sv.Fields] {
		assign(&sv, col.Index, fields[col.Index])
	}
	return sv
}

func assign(sv *model.StateVector, index int, v any) {
	switch index {
	case 0:
		sv.ICAO24 = asString(v)
	case 1:
		sv.Callsign = asNullableString(v)
	case 2:
		sv.OriginCountry = asString(v)
	case 3:
		sv.TimePosition = asNullableInt(v)
	case 4:
		sv.LastContact = asInt(v)
	case 5:
		sv.Longitude = asNullableFloat(v)
	case 6:
		sv.Latitude = asNullableFloat(v)
	case 7:
		sv.BaroAltitude = asNullableFloat(v)
	case 8:
		sv.OnGround = asBool(v)
	case 9:
		sv.Velocity = asNullableFloat(v)
	case 10:
		sv.TrueTrack = asNullableFloat(v)
	case 11:
		sv.VerticalRate = asNullableFloat(v)
	case 12:
		sv.Sensors = asIntList(v)
	case 13:
		sv.GeoAltitude = asNullableFloat(v)
	case 14:
		sv.Squawk = asNullableString(v)
	case 15:
		sv.SPI = asBool(v)
	case 16:
		sv.PositionSource = model.PositionSource(asInt(v))
	}
}
