package types

// Credential is one physical credential a node should accept.
type Credential struct {
	CardUID string `json:"cardUid"`
	UserID  string `json:"userId"`
	Role    Role   `json:"role"`
}

type WhitelistResponse struct {
	ChipID      string       `json:"chipId"`
	RoomID      string       `json:"roomId"`
	Credentials []Credential `json:"credentials"`
	ServerTime  string       `json:"serverTime"`
}

// DeviceConfig is the device-relevant slice of system configuration.
type DeviceConfig struct {
	BLEServiceUUID       string          `json:"bleServiceUuid,omitempty" yaml:"ble_service_uuid"`
	BLEPairingKey        string          `json:"blePairingKey,omitempty" yaml:"ble_pairing_key"`
	HeartbeatIntervalSec int             `json:"heartbeatIntervalSec" yaml:"heartbeat_interval_sec"`
	LogSyncIntervalSec   int             `json:"logSyncIntervalSec" yaml:"log_sync_interval_sec"`
	Features             map[string]bool `json:"features,omitempty" yaml:"features"`
}

type ConfigResponse struct {
	ChipID     string       `json:"chipId"`
	RoomID     string       `json:"roomId,omitempty"`
	Config     DeviceConfig `json:"config"`
	ServerTime string       `json:"serverTime"`
}
