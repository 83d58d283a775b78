package models

// PositionDNF marks a driver that did not finish (or did not start). It never
// satisfies a top-N success threshold.
const PositionDNF = 0

// MaxFinishingPosition bounds the accepted finishing positions. Anything
// beyond this is a data error, not a result.
const MaxFinishingPosition = 50

// RaceResult is the actual finishing position of a driver in a race.
type RaceResult struct {
	RaceName string `json:"race_name" validate:"required"`
	Driver   string `json:"driver" validate:"required"`
	// Position is 1-based; PositionDNF for a non-finisher.
	Position int `json:"actual_position"`
}

// Key returns the (race, driver) identity used for matching.
func (r RaceResult) Key() BetKey {
	return BetKey{RaceName: r.RaceName, Driver: r.Driver}
}

// DidFinish reports whether the driver was classified with a finishing position.
func (r RaceResult) DidFinish() bool {
	return r.Position != PositionDNF
}

// Validate checks the result fields against the accepted ranges.
func (r RaceResult) Validate() error {
	if r.RaceName == "" {
		return ErrMissingRaceName
	}
	if r.Driver == "" {
		return ErrMissingDriver
	}
	if r.Position < PositionDNF || r.Position > MaxFinishingPosition {
		return ErrInvalidPosition
	}
	return nil
}
