package geo

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Pricing heuristic constants. The band is a display estimate, not a fare
// quote from any pricing feed.
const (
	PriceCurrency      = "USD"
	basePrice          = 200.0
	nearRatePerKm      = 0.45 // first 2000 km
	farRatePerKm       = 0.35 // beyond 2000 km
	nearBandKm         = 2000.0
	zeroDistancePrice  = 400.0
	roundingGranule    = 10
	lowBandMultiplier  = 0.8
	highBandMultiplier = 1.2
)

// PriceBand is an approximate round-trip price range in whole currency units.
type PriceBand struct {
	Currency string `json:"currency"`
	Low      int64  `json:"low"`
	High     int64  `json:"high"`
	Mid      int64  `json:"mid"`
}

// EstimatePrice computes a heuristic flight-price band for a great-circle
// distance. Distances at or below zero collapse to a flat local estimate.
func EstimatePrice(distanceKm float64) PriceBand {
	approx := zeroDistancePrice
	if distanceKm > 0 {
		variable := distanceKm * nearRatePerKm
		if distanceKm > nearBandKm {
			variable = nearBandKm*nearRatePerKm + (distanceKm-nearBandKm)*farRatePerKm
		}
		approx = basePrice + variable
	}

	return PriceBand{
		Currency: PriceCurrency,
		Low:      roundToGranule(approx * lowBandMultiplier),
		High:     roundToGranule(approx * highBandMultiplier),
		Mid:      roundToGranule(approx),
	}
}

// roundToGranule rounds to the nearest 10 currency units.
func roundToGranule(v float64) int64 {
	g := decimal.NewFromInt(roundingGranule)
	return decimal.NewFromFloat(v).Div(g).Round(0).Mul(g).IntPart()
}

// FormatDistance renders a distance with one decimal place.
func FormatDistance(distanceKm float64) string {
	return fmt.Sprintf("%.1f km", distanceKm)
}

// Format renders the band as a low-high range plus midpoint.
func (b PriceBand) Format() string {
	return fmt.Sprintf("%s %d-%d (approx. %d)", b.Currency, b.Low, b.High, b.Mid)
}
