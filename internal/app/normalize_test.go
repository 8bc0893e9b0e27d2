package app_test

import (
	"encoding/json"
	"testing"

	"property_bot/internal/app"
	"property_bot/internal/domain"
)

// decode mirrors what the remote client hands over (UseNumber on).
func decode(t *testing.T, s string) []any {
	t.Helper()
	var out []any
	dec := json.NewDecoder(stringsReader(s))
	dec.UseNumber()
	if err := dec.Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return out
}

func TestNormalizeProperty_FullRecord(t *testing.T) {
	items := decode(t, `[{"id":"1","name":"Sea View","location":"Lisbon","airbnb_rating":4.8,"booking_rating":"4,6","price":"120.5","description":"Nice"}]`)
	props := app.NormalizeProperties(items)
	if len(props) != 1 {
		t.Fatalf("expected 1 property, got %d", len(props))
	}
	p := props[0]
	if p.ID != "1" || p.Name != "Sea View" || p.Location != "Lisbon" || p.Description != "Nice" {
		t.Fatalf("unexpected text fields: %+v", p)
	}
	if !p.Airbnb.Known || p.Airbnb.Value != 4.8 {
		t.Fatalf("unexpected airbnb: %+v", p.Airbnb)
	}
	if !p.Booking.Known || p.Booking.Value != 4.6 {
		t.Fatalf("unexpected booking: %+v", p.Booking)
	}
	if !p.Price.Known || p.Price.Value != 120.5 {
		t.Fatalf("unexpected price: %+v", p.Price)
	}
}

func TestNormalizeProperty_MissingAndMalformedFieldsDefault(t *testing.T) {
	cases := map[string]string{
		"only id":       `{"id":"9"}`,
		"wrong types":   `{"id":"9","name":{"x":1},"airbnb_rating":[1],"booking_rating":true,"price":"cheap"}`,
		"nulls":         `{"id":"9","name":null,"location":null,"airbnb_rating":null,"price":null}`,
		"out of range":  `{"id":"9","airbnb_rating":11,"booking_rating":-1}`,
		"negative cost": `{"id":"9","price":-3}`,
	}
	for name, raw := range cases {
		var m map[string]any
		if err := json.Unmarshal([]byte(raw), &m); err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		p, ok := app.NormalizeProperty(m)
		if !ok {
			t.Fatalf("%s: record with id must be kept", name)
		}
		if p.ID != "9" || p.Name != "" || p.Location != "" || p.Description != "" {
			t.Fatalf("%s: unexpected text defaults: %+v", name, p)
		}
		if p.Airbnb != domain.Unknown || p.Booking != domain.Unknown || p.Price != domain.Unknown {
			t.Fatalf("%s: numeric fields must be unknown: %+v", name, p)
		}
	}
}

func TestNormalizeProperty_AliasesAndNumericIDs(t *testing.T) {
	items := decode(t, `[{"id":12,"airbnb":"4.5","booking":3,"address":"Porto"},{"id":"12.5"},{"id":3.0}]`)
	props := app.NormalizeProperties(items)
	if len(props) != 3 {
		t.Fatalf("expected 3 properties, got %d", len(props))
	}
	if props[0].ID != "12" || props[0].Location != "Porto" {
		t.Fatalf("unexpected first: %+v", props[0])
	}
	if props[0].Airbnb != domain.Known(4.5) || props[0].Booking != domain.Known(3) {
		t.Fatalf("unexpected ratings: %+v", props[0])
	}
	if props[1].ID != "12.5" {
		t.Fatalf("string ids are kept verbatim, got %q", props[1].ID)
	}
	if props[2].ID != "3" {
		t.Fatalf("integral number ids drop decimals, got %q", props[2].ID)
	}
}

func TestNormalizeProperties_HugeNumericIDsStayDistinct(t *testing.T) {
	items := decode(t, `[{"id":12345678901234567890,"name":"A"},{"id":99999999999999999999,"name":"B"},{"id":-18446744073709551616}]`)
	props := app.NormalizeProperties(items)
	if len(props) != 3 {
		t.Fatalf("expected 3 properties, got %+v", props)
	}
	want := []string{"12345678901234567890", "99999999999999999999", "-18446744073709551616"}
	for i, id := range want {
		if props[i].ID != id {
			t.Fatalf("record %d: got id %q want %q", i, props[i].ID, id)
		}
	}

	// without UseNumber the value arrives as float64 and cannot be represented exactly
	p, ok := app.NormalizeProperty(map[string]any{"id": 1e30})
	if ok {
		t.Fatalf("out-of-range float id must not overflow into an id, got %q", p.ID)
	}
}

func TestNormalizeProperties_DropsInvalidRecords(t *testing.T) {
	items := decode(t, `[{"name":"no id"},{"id":""},"scalar",null,[1,2],{"id":"a"},{"id":"a","name":"dup"},{"id":1.5}]`)
	props := app.NormalizeProperties(items)
	if len(props) != 1 {
		t.Fatalf("expected only the first 'a' to survive, got %+v", props)
	}
	if props[0].ID != "a" || props[0].Name != "" {
		t.Fatalf("first record must win: %+v", props[0])
	}
}

func TestNormalizeProperty_TrimsAndNormalizesText(t *testing.T) {
	m := map[string]any{"id": " 7 ", "name": "  Cafe\u0301 Rooms  "}
	p, ok := app.NormalizeProperty(m)
	if !ok {
		t.Fatalf("expected ok")
	}
	if p.ID != "7" {
		t.Fatalf("unexpected id %q", p.ID)
	}
	if p.Name != "Caf\u00e9 Rooms" {
		t.Fatalf("expected NFC-composed name, got %q", p.Name)
	}
}

func TestNormalizeComplaints(t *testing.T) {
	items := decode(t, `[
		{"id":"1","property_id":"2","complaint":"Noisy","date":"2024-01-01","status":"open"},
		{"id":"2","propertyId":2,"message":"Cold","createdAt":"yesterday","subject":"Heating","priority":"high"},
		{"property_id":"2","complaint":"no id"}
	]`)
	cs := app.NormalizeComplaints(items)
	if len(cs) != 2 {
		t.Fatalf("expected 2 complaints, got %d", len(cs))
	}
	if cs[0].Text != "Noisy" || cs[0].Date != "2024-01-01" || cs[0].Status != "open" {
		t.Fatalf("unexpected first: %+v", cs[0])
	}
	if cs[1].PropertyID != "2" || cs[1].Text != "Cold" || cs[1].Title != "Heating" || cs[1].Severity != "high" {
		t.Fatalf("unexpected second: %+v", cs[1])
	}
	if got := app.ComplaintsFor(cs, "2"); len(got) != 2 {
		t.Fatalf("expected both complaints for property 2, got %d", len(got))
	}
	if got := app.ComplaintsFor(cs, "20"); len(got) != 0 {
		t.Fatalf("property id match must be exact, got %d", len(got))
	}
}
