package event

import (
	jsoniter "github.com/json-iterator/go"
)

// NumArgs number of raw argument words carried by every event
const NumArgs = 6

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// SyscallEvent one traced syscall, decoded from a single record.
type SyscallEvent struct {
	UID         uint32          `json:"uid"`
	PID         uint32          `json:"pid"`
	PPID        uint32          `json:"ppid"`
	TID         uint32          `json:"tid"`
	Timestamp   uint64          `json:"timestamp"`
	SyscallNr   uint32          `json:"syscall_nr"`
	SyscallArgs [NumArgs]uint64 `json:"syscall_args"`
	SyscallRet  uint64          `json:"syscall_ret"`
}

// MarshalJSON encodes the event with its wire field names.
func (e SyscallEvent) MarshalJSON() ([]byte, error) {
	type plain SyscallEvent
	return json.Marshal(plain(e))
}

// MarshalIndentJSON encodes the event as indented JSON.
func (e SyscallEvent) MarshalIndentJSON(indent string) ([]byte, error) {
	type plain SyscallEvent
	return json.MarshalIndent(plain(e), "", indent)
}
