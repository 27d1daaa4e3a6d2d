package geo

import (
	"math"
	"testing"
)

func TestHaversineKm(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		wantKm                 float64
		toleranceKm            float64
	}{
		{"coincident points", 25.2048, 55.2708, 25.2048, 55.2708, 0, 0.0001},
		{"coincident at origin", 0, 0, 0, 0, 0, 0.0001},
		{"london to paris", 51.5074, -0.1278, 48.8566, 2.3522, 343.5, 5},
		{"dubai to london", 25.2048, 55.2708, 51.5074, -0.1278, 5495, 50},
		{"antipodal-ish", 0, 0, 0, 180, math.Pi * EarthRadiusKm, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HaversineKm(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			if math.Abs(got-tt.wantKm) > tt.toleranceKm {
				t.Errorf("HaversineKm() = %v, want %v (+/- %v)", got, tt.wantKm, tt.toleranceKm)
			}
		})
	}
}

func TestEstimatePrice(t *testing.T) {
	tests := []struct {
		name           string
		distanceKm     float64
		low, high, mid int64
	}{
		{"zero distance", 0, 320, 480, 400},
		{"negative distance", -5, 320, 480, 400},
		{"short haul 1000km", 1000, 520, 780, 650},
		{"band boundary 2000km", 2000, 880, 1320, 1100},
		{"long haul 5000km", 5000, 1720, 2580, 2150},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			band := EstimatePrice(tt.distanceKm)
			if band.Low != tt.low || band.High != tt.high || band.Mid != tt.mid {
				t.Errorf("EstimatePrice(%v) = {%d %d %d}, want {%d %d %d}",
					tt.distanceKm, band.Low, band.High, band.Mid, tt.low, tt.high, tt.mid)
			}
			if band.Currency != PriceCurrency {
				t.Errorf("currency = %q, want %q", band.Currency, PriceCurrency)
			}
		})
	}
}

func TestPriceBandRoundedToTens(t *testing.T) {
	for km := 0.0; km < 12000; km += 137.3 {
		band := EstimatePrice(km)
		for _, v := range []int64{band.Low, band.High, band.Mid} {
			if v%10 != 0 {
				t.Fatalf("EstimatePrice(%v) produced %d, not a multiple of 10", km, v)
			}
		}
		if band.Low > band.Mid || band.Mid > band.High {
			t.Fatalf("EstimatePrice(%v) band out of order: %+v", km, band)
		}
	}
}

func TestFormatting(t *testing.T) {
	if got := FormatDistance(1234.567); got != "1234.6 km" {
		t.Errorf("FormatDistance = %q", got)
	}
	band := EstimatePrice(1000)
	if got := band.Format(); got != "USD 520-780 (approx. 650)" {
		t.Errorf("Format = %q", got)
	}
}
