package types

// DeviceStatus is the liveness state of a hardware node. Only "pending"
// and "online" are ever written by the gateway; "offline" is reserved for
// external monitoring.
type DeviceStatus string

const (
	DeviceOnline  DeviceStatus = "online"
	DeviceOffline DeviceStatus = "offline"
	DevicePending DeviceStatus = "pending"
)

// Device is the record returned to hardware by /api/register.
type Device struct {
	ID              string       `json:"id"`
	ChipID          string       `json:"chipId"`
	RoomID          string       `json:"roomId,omitempty"`
	FirmwareVersion string       `json:"firmwareVersion,omitempty"`
	Status          DeviceStatus `json:"status"`
	LastSeen        string       `json:"lastSeen,omitempty"`
	CreatedAt       string       `json:"createdAt"`
}

type RegisterRequest struct {
	ChipID string `json:"chipId"`
}

type HeartbeatRequest struct {
	ChipID   string `json:"chipId"`
	Firmware string `json:"firmware,omitempty"`
}

type HeartbeatResponse struct {
	OK         bool         `json:"ok"`
	ChipID     string       `json:"chipId"`
	Status     DeviceStatus `json:"status"`
	ServerTime string       `json:"serverTime"`
}
