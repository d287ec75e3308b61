package domain

import "errors"

var (
	// ErrInvalidPosition marks a report whose latitude or longitude is missing or unusable.
	ErrInvalidPosition = errors.New("invalid position: lat and lon must both be numeric and in range")

	// ErrGeocodeNotFound is returned by geocoders when an address has no match.
	ErrGeocodeNotFound = errors.New("geocode: no match for address")
)
