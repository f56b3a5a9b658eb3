package types

// TimeSource tags how far DeviceTime can be trusted.
type TimeSource string

const (
	// TimeSourceNetwork means the client clock was corrected against a
	// recent server time sample.
	TimeSourceNetwork TimeSource = "network"
	TimeSourceLocal   TimeSource = "local"
)

type GPS struct {
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	Accuracy float64 `json:"accuracy,omitempty"`
}

// Evidence is the anti-cheat envelope attached to every attendance
// submission. Construct it through the attendance package so HasInternet
// always reflects the delivery path.
type Evidence struct {
	DeviceTime  string     `json:"deviceTime"`
	TimeSource  TimeSource `json:"timeSource"`
	HasInternet bool       `json:"hasInternet"`
	DeviceID    string     `json:"deviceId"`
	GPS         *GPS       `json:"gps"`
}

// ForQueue is the only way to produce the form of the envelope that may be
// written to the local queue: anything queued was, by definition, not
// delivered live.
func (e Evidence) ForQueue() Evidence {
	e.HasInternet = false
	if e.GPS != nil {
		g := *e.GPS
		e.GPS = &g
	}
	return e
}
