package parser

import (
	"errors"
	"testing"

	"flight-state-table/internal/model"
)

const samplePayload = `{"time":1690000010,"states":[["abc123","SWA123 ","United States",1690000000,1690000005,-97.5,35.2,1000.5,false,230.1,90.0,0.5,null,1050.0,"1200",false,0]]}`

func TestParse_Sample(t *testing.T) {
	resp, err := ParseResponse([]byte(samplePayload))
	if err != nil {
		t.Fatalf("ParseResponse failed: %v", err)
	}
	if resp.Time != 1690000010 {
		t.Errorf("Time = %d, want 1690000010", resp.Time)
	}
	if len(resp.States) != 1 {
		t.Fatalf("len(States) = %d, want 1", len(resp.States))
	}

	sv := resp.States[0]
	if sv.ICAO24 != "abc123" {
		t.Errorf("ICAO24 = %q, want %q", sv.ICAO24, "abc123")
	}
	if sv.Callsign == nil || *sv.Callsign != "SWA123 " {
		t.Errorf("Callsign = %v, want %q", sv.Callsign, "SWA123 ")
	}
	if sv.TimePosition == nil || *sv.TimePosition != 1690000000 {
		t.Errorf("TimePosition = %v, want 1690000000", sv.TimePosition)
	}
	if sv.LastContact != 1690000005 {
		t.Errorf("LastContact = %d, want 1690000005", sv.LastContact)
	}
	if sv.BaroAltitude == nil || *sv.BaroAltitude != 1000.5 {
		t.Errorf("BaroAltitude = %v, want 1000.5", sv.BaroAltitude)
	}
	if sv.OnGround {
		t.Error("OnGround = true, want false")
	}
	if sv.Sensors != nil {
		t.Errorf("Sensors = %v, want nil", sv.Sensors)
	}
	if sv.Squawk == nil || *sv.Squawk != "1200" {
		t.Errorf("Squawk = %v, want %q", sv.Squawk, "1200")
	}
	if sv.PositionSource != model.SourceADSB {
		t.Errorf("PositionSource = %v, want ADS-B", sv.PositionSource)
	}
	if sv.Fields != model.FieldCount {
		t.Errorf("Fields = %d, want %d", sv.Fields, model.FieldCount)
	}
}

func TestParse_PreservesOrder(t *testing.T) {
	payload := `{"states":[["c"],["a"],["b"],["a"]]}`

	states, err := Parse([]byte(payload))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	want := []string{"c", "a", "b", "a"}
	if len(states) != len(want) {
		t.Fatalf("len(states) = %d, want %d", len(states), len(want))
	}
	for i, w := range want {
		if states[i].ICAO24 != w {
			t.Errorf("states[%d].ICAO24 = %q, want %q", i, states[i].ICAO24, w)
		}
	}
}

func TestParse_EmptyContainers(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"empty array", `{"states": []}`},
		{"null states", `{"time": 1, "states": null}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			states, err := Parse([]byte(tt.payload))
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			if len(states) != 0 {
				t.Errorf("len(states) = %d, want 0", len(states))
			}
		})
	}
}

func TestParse_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"empty", ``},
		{"not json", `<html>502 Bad Gateway</html>`},
		{"truncated", `{"states":[["abc"`},
		{"top level array", `[["abc123"]]`},
		{"top level null", `null`},
		{"missing key", `{"time": 1690000000}`},
		{"states not array", `{"states": "nope"}`},
		{"states object", `{"states": {"a": 1}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			states, err := Parse([]byte(tt.payload))
			if !errors.Is(err, ErrMalformedPayload) {
				t.Fatalf("err = %v, want ErrMalformedPayload", err)
			}
			if states != nil {
				t.Errorf("states = %v, want nil", states)
			}
		})
	}
}

func TestParse_ShortAndOddElements(t *testing.T) {
	payload := `{"states":[["abc123","CS1"],[],null,"junk",["x","y","z",1,2,3,4,5,true,6,7,8,[1,2],9,"7700",true,2,"extra",99]]}`

	states, err := Parse([]byte(payload))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(states) != 5 {
		t.Fatalf("len(states) = %d, want 5", len(states))
	}

	if states[0].Fields != 2 {
		t.Errorf("states[0].Fields = %d, want 2", states[0].Fields)
	}
	if states[0].OriginCountry != "" || states[0].Latitude != nil {
		t.Errorf("states[0] trailing fields should be absent: %+v", states[0])
	}
	for i := 1; i <= 3; i++ {
		if states[i].Fields != 0 {
			t.Errorf("states[%d].Fields = %d, want 0", i, states[i].Fields)
		}
	}

	wide := states[4]
	if wide.Fields != model.FieldCount {
		t.Errorf("wide.Fields = %d, want %d", wide.Fields, model.FieldCount)
	}
	if wide.PositionSource != model.SourceMLAT {
		t.Errorf("wide.PositionSource = %v, want MLAT", wide.PositionSource)
	}
	if len(wide.Sensors) != 2 || wide.Sensors[0] != 1 || wide.Sensors[1] != 2 {
		t.Errorf("wide.Sensors = %v, want [1 2]", wide.Sensors)
	}
}

func TestParse_Coercion(t *testing.T) {
	payload := `{"states":[[42,false,null,"soon",{"a":1},"west",null,1.5e3,"yes",true,[],null,"1,2",7,12,1,1.9]]}`

	states, err := Parse([]byte(payload))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	sv := states[0]

	if sv.ICAO24 != "" {
		t.Errorf("ICAO24 = %q, want empty", sv.ICAO24)
	}
	if sv.Callsign == nil || *sv.Callsign != "" {
		t.Errorf("Callsign = %v, want present empty string", sv.Callsign)
	}
	if sv.TimePosition == nil || *sv.TimePosition != 0 {
		t.Errorf("TimePosition = %v, want present zero", sv.TimePosition)
	}
	if sv.LastContact != 0 {
		t.Errorf("LastContact = %d, want 0", sv.LastContact)
	}
	if sv.Longitude == nil || *sv.Longitude != 0 {
		t.Errorf("Longitude = %v, want present zero", sv.Longitude)
	}
	if sv.Latitude != nil {
		t.Errorf("Latitude = %v, want nil", sv.Latitude)
	}
	if sv.BaroAltitude == nil || *sv.BaroAltitude != 1500 {
		t.Errorf("BaroAltitude = %v, want 1500", sv.BaroAltitude)
	}
	if sv.OnGround {
		t.Error("OnGround = true, want false for non-bool")
	}
	if sv.Velocity == nil || *sv.Velocity != 0 {
		t.Errorf("Velocity = %v, want present zero", sv.Velocity)
	}
	if sv.Sensors != nil {
		t.Errorf("Sensors = %v, want nil for non-array", sv.Sensors)
	}
	if sv.Squawk == nil || *sv.Squawk != "" {
		t.Errorf("Squawk = %v, want present empty string", sv.Squawk)
	}
	if sv.SPI {
		t.Error("SPI = true, want false for non-bool")
	}
	if sv.PositionSource != model.SourceASTERIX {
		t.Errorf("PositionSource = %v, want ASTERIX (truncated 1.9)", sv.PositionSource)
	}
}

func TestParse_LargeTimestampsKeepPrecision(t *testing.T) {
	payload := `{"states":[["a",null,"c",9007199254740993,9007199254740993]]}`

	states, err := Parse([]byte(payload))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if got := states[0].LastContact; got != 9007199254740993 {
		t.Errorf("LastContact = %d, want 9007199254740993", got)
	}
}
