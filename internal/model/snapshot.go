package model

import "encoding/json"

// Snapshot is one full status report for an instrument: the configured
// block groups plus the flat set of instrument-level PVs. A snapshot is
// produced fresh on every poll and superseded wholesale by the next one;
// nothing merges or diffs across cycles.
type Snapshot struct {
	ConfigName string                      `json:"config_name"`
	Groups     map[string]map[string]Block `json:"groups"`
	InstPVs    map[string]Block            `json:"inst_pvs"`
}

func SnapshotFromJSON(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Snapshot) ToJSON() ([]byte, error) {
	return json.Marshal(s)
}

// InstPV looks up an instrument-level PV by name.
func (s *Snapshot) InstPV(name string) (Block, bool) {
	b, ok := s.InstPVs[name]
	return b, ok
}
