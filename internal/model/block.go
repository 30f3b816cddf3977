package model

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Block statuses reported by the block archiver.
const (
	StatusConnected    = "Connected"
	StatusDisconnected = "Disconnected"
)

// Range-check flag values. Anything other than "YES"/"NO" means the
// archiver had no range information for the block.
const (
	RCYes = "YES"
	RCNo  = "NO"
)

// Block is one process-variable reading together with its display
// metadata. Immutable once decoded; it lives for a single poll cycle.
type Block struct {
	Value      string `json:"value"`
	Status     string `json:"status"`
	Alarm      string `json:"alarm"`
	Visibility bool   `json:"visibility"`
	RCEnabled  string `json:"rc_enabled,omitempty"`
	RCInRange  string `json:"rc_inrange,omitempty"`
}

// blockWire mirrors Block but keeps value untyped. The archiver emits
// strings for most PVs but raw numbers for some, so decoding has to
// coerce rather than assume.
type blockWire struct {
	Value      any    `json:"value"`
	Status     string `json:"status"`
	Alarm      string `json:"alarm"`
	Visibility bool   `json:"visibility"`
	RCEnabled  string `json:"rc_enabled"`
	RCInRange  string `json:"rc_inrange"`
}

func (b *Block) UnmarshalJSON(data []byte) error {
	var w blockWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	b.Value = coerceString(w.Value)
	b.Status = w.Status
	b.Alarm = w.Alarm
	b.Visibility = w.Visibility
	b.RCEnabled = w.RCEnabled
	b.RCInRange = w.RCInRange
	return nil
}

// Connected reports whether the block was connected when sampled.
func (b Block) Connected() bool {
	return b.Status == StatusConnected
}

func coerceString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
