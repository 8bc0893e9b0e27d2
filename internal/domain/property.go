package domain

// Rating domain shared by both sources; charts use it as their fixed y-axis.
const (
	RatingMin = 0.0
	RatingMax = 5.0
)

// Measure is a numeric field that may be unknown. The zero value is Unknown.
type Measure struct {
	Value float64
	Known bool
}

var Unknown = Measure{}

func Known(v float64) Measure { return Measure{Value: v, Known: true} }

type Property struct {
	ID          string
	Name        string
	Location    string
	Airbnb      Measure
	Booking     Measure
	Price       Measure
	Description string
}

// RankedEntry is a property with its composite score; recomputed per request.
type RankedEntry struct {
	Property Property
	Score    float64
}
