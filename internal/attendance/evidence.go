package attendance

import (
	"time"

	"github.com/BrandonDHaskell/Portunus/campus/internal/campus/types"
)

// DeliveryOutcome is the path an envelope is built for.
type DeliveryOutcome int

const (
	Immediate DeliveryOutcome = iota
	Queued
)

func (o DeliveryOutcome) String() string {
	if o == Immediate {
		return "immediate"
	}
	return "queued"
}

// NewEvidence stamps an envelope. HasInternet follows outcome, so a live
// attempt claims connectivity and anything else does not.
func NewEvidence(outcome DeliveryOutcome, clock Clock, deviceID string, gps *types.GPS) types.Evidence {
	return types.Evidence{
		DeviceTime:  clock.Now().Format(time.RFC3339Nano),
		TimeSource:  clock.Source(),
		HasInternet: outcome == Immediate,
		DeviceID:    deviceID,
		GPS:         gps,
	}
}
