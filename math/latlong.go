// math/latlong.go
// Copyright(c) 2025 flightcontrols contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package math

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const NMPerLatitude = 60

// EarthRadiusNM is the mean Earth radius used for great-circle
// computations.
const EarthRadiusNM = 3443.92

///////////////////////////////////////////////////////////////////////////
// Point2LL

const NauticalMilesToFeet = 6076.12
const FeetToNauticalMiles = 1 / NauticalMilesToFeet

// Point2LL represents a 2D point on the Earth in latitude-longitude.
// Important: 0 (x) is longitude, 1 (y) is latitude
type Point2LL [2]float64

func (p Point2LL) Longitude() float64 {
	return p[0]
}

func (p Point2LL) Latitude() float64 {
	return p[1]
}

func (p Point2LL) IsZero() bool {
	return p[0] == 0 && p[1] == 0
}

// DDString returns the position in decimal degrees, e.g.:
// (39.860901, -75.274864)
func (p Point2LL) DDString() string {
	return fmt.Sprintf("(%f, %f)", p[1], p[0]) // latitude, longitude
}

// String returns the position in the "lat/lon" form used in clearances.
func (p Point2LL) String() string {
	return strconv.FormatFloat(p[1], 'f', -1, 64) + "/" + strconv.FormatFloat(p[0], 'f', -1, 64)
}

// ParseLatLong parses a decimal latitude and longitude pair. The two
// values may be separated by a slash, semicolon, comma, or whitespace,
// e.g. "40.0/-75.0" or "40.6328 -73.7713".
func ParseLatLong(s string) (Point2LL, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == '/' || r == ';' || r == ',' || r == ' ' || r == '\t'
	})
	if len(fields) != 2 {
		return Point2LL{}, fmt.Errorf("%s: invalid latlong string", s)
	}

	lat, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return Point2LL{}, fmt.Errorf("%s: invalid latitude: %w", s, err)
	}
	lon, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return Point2LL{}, fmt.Errorf("%s: invalid longitude: %w", s, err)
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return Point2LL{}, fmt.Errorf("%s: latlong out of range", s)
	}
	return Point2LL{lon, lat}, nil
}

// NMDistance2LL returns the great-circle distance in nautical miles
// between two provided lat-long coordinates, using the haversine
// formula.
func NMDistance2LL(a Point2LL, b Point2LL) float64 {
	// https://www.movable-type.co.uk/scripts/latlong.html
	lat1, lon1 := Radians(a[1]), Radians(a[0])
	lat2, lon2 := Radians(b[1]), Radians(b[0])
	dlat, dlon := lat2-lat1, lon2-lon1

	x := Sqr(Sin(dlat/2)) + Cos(lat1)*Cos(lat2)*Sqr(Sin(dlon/2))
	c := 2 * Atan2(Sqrt(x), Sqrt(1-x))
	return EarthRadiusNM * c
}

// Heading2LL returns the initial great-circle bearing from the point
// |from| to the point |to| in degrees true, in [0,360).
func Heading2LL(from Point2LL, to Point2LL) float64 {
	lat1, lat2 := Radians(from[1]), Radians(to[1])
	dlon := Radians(to[0] - from[0])

	y := Sin(dlon) * Cos(lat2)
	x := Cos(lat1)*Sin(lat2) - Sin(lat1)*Cos(lat2)*Cos(dlon)
	return NormalizeHeading(Degrees(Atan2(y, x)))
}

// Offset2LL returns the point at distance dist along the vector with
// heading hdg from the given point. It assumes a (locally) flat earth.
func Offset2LL(p Point2LL, hdg float64, dist float64) Point2LL {
	h := Radians(hdg)
	lat := p[1] + dist*Cos(h)/NMPerLatitude
	lon := p[0] + dist*Sin(h)/(NMPerLatitude*Cos(Radians(lat)))
	return Point2LL{lon, lat}
}

// Store Point2LLs as "lat/lon" strings in JSON, for friendliness...
func (p Point2LL) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

func (p *Point2LL) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '[' {
		var pt [2]float64
		err := json.Unmarshal(b, &pt)
		if err == nil {
			*p = pt
		}
		return err
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	pt, err := ParseLatLong(s)
	if err == nil {
		*p = pt
	}
	return err
}
