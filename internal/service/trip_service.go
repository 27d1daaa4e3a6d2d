package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"streetwalk/internal/geocode"
	"streetwalk/pkg/geo"
)

// ErrPlaceNotFound marks a trip endpoint that geocoded to no result.
var ErrPlaceNotFound = errors.New("place could not be found")

// PriceEstimateResponse is the JSON payload for POST /api/price.
type PriceEstimateResponse struct {
	OriginFormatted      string        `json:"origin_formatted"`
	DestinationFormatted string        `json:"destination_formatted"`
	DistanceKm           float64       `json:"distance_km"`
	DistanceText         string        `json:"distance_text"`
	PriceText            string        `json:"price_text"`
	Price                geo.PriceBand `json:"price"`
}

// TripService estimates a display price band for a trip between two
// free-text place names.
type TripService interface {
	EstimatePrice(ctx context.Context, origin, destination string) (*PriceEstimateResponse, error)
}

type tripService struct {
	resolver geocode.Resolver
}

// NewTripService returns a new instance of TripService
func NewTripService(resolver geocode.Resolver) TripService {
	return &tripService{resolver: resolver}
}

func (s *tripService) EstimatePrice(ctx context.Context, origin, destination string) (*PriceEstimateResponse, error) {
	from, err := s.resolver.Resolve(ctx, origin)
	if err != nil {
		return nil, err
	}
	if from == nil {
		return nil, fmt.Errorf("%w: %s", ErrPlaceNotFound, origin)
	}

	to, err := s.resolver.Resolve(ctx, destination)
	if err != nil {
		return nil, err
	}
	if to == nil {
		return nil, fmt.Errorf("%w: %s", ErrPlaceNotFound, destination)
	}

	distance := geo.HaversineKm(from.Lat, from.Lng, to.Lat, to.Lng)
	// One decimal, matching the rendered text
	distance = math.Round(distance*10) / 10
	band := geo.EstimatePrice(distance)

	return &PriceEstimateResponse{
		OriginFormatted:      from.DisplayName,
		DestinationFormatted: to.DisplayName,
		DistanceKm:           distance,
		DistanceText:         geo.FormatDistance(distance),
		PriceText:            band.Format(),
		Price:                band,
	}, nil
}
