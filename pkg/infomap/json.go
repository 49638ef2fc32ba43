package infomap

import "encoding/json"

// ToJSON renders an Information/Option map's string-valued entries as a
// JSON object. Non-string values are rendered via their default JSON
// encoding; this is used at process boundaries (catalog IPC, offloading
// wire messages) where the core treats map contents as opaque payloads.
func (m *Map) ToJSON() ([]byte, error) {
	m.mu.Lock()
	snapshot := make(map[string]interface{}, len(m.entries))
	for k, e := range m.entries {
		snapshot[k] = e.value
	}
	m.mu.Unlock()
	return json.Marshal(snapshot)
}

// FromJSON populates an Information map from a flat JSON object, storing
// each member's decoded JSON value (string, float64, bool, nested
// map or slice, or nil) as is, with no destructor (the map owns no
// external resource for JSON-sourced entries).
func FromJSON(data []byte) (*Map, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	m := NewInformation()
	for k, v := range raw {
		if err := m.Set(k, v, nil); err != nil {
			return nil, err
		}
	}
	return m, nil
}
