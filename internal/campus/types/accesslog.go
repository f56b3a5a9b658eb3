package types

type Method string

const (
	MethodCard  Method = "card"
	MethodPhone Method = "phone"
)

func (m Method) Valid() bool { return m == MethodCard || m == MethodPhone }

type Action string

const (
	ActionOpenGate   Action = "OPEN_GATE"
	ActionAttendance Action = "ATTENDANCE"
)

func (a Action) Valid() bool { return a == ActionOpenGate || a == ActionAttendance }

// TimestampType records whether an access log's timestamp came from the
// server clock or from an untrusted device clock.
type TimestampType string

const (
	TimestampServer TimestampType = "server"
	TimestampLocal  TimestampType = "local"
)

// HardwareLog is one access event captured by a node, possibly while it
// was offline. ID is the node's own sequence id and makes re-sync safe.
type HardwareLog struct {
	ID        string `json:"id,omitempty"`
	CardUID   string `json:"cardUid"`
	Action    Action `json:"action,omitempty"`
	Result    string `json:"result"`
	Timestamp string `json:"timestamp"`
}

type SyncLogsRequest struct {
	ChipID string        `json:"chipId"`
	Logs   []HardwareLog `json:"logs"`
}

type SyncLogsResponse struct {
	OK         bool   `json:"ok"`
	Accepted   int    `json:"accepted"`
	Duplicates int    `json:"duplicates"`
	Rejected   int    `json:"rejected"`
	ServerTime string `json:"serverTime"`
}

// AttendanceRequest is what the mobile client posts, both for immediate
// delivery and for queue replay.
type AttendanceRequest struct {
	SubmissionID string   `json:"submissionId"`
	UserID       string   `json:"userId"`
	RoomID       string   `json:"roomId"`
	Timestamp    string   `json:"timestamp"`
	Method       Method   `json:"method"`
	Evidence     Evidence `json:"evidence"`
}

type AttendanceResponse struct {
	OK            bool          `json:"ok"`
	Duplicate     bool          `json:"duplicate"`
	TimestampType TimestampType `json:"timestampType"`
	ServerTime    string        `json:"serverTime"`
}

type TimeResponse struct {
	ServerTime string `json:"serverTime"`
}
