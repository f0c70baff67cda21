package memory

import (
	"encoding/json"
	"fmt"
)

// Buckets lists the rows table-backed media split a Snapshot into, in write order.
var Buckets = []string{"businesses", "departments", "employees", "links"}

func (s *Snapshot) bucket(name string) any {
	switch name {
	case "businesses":
		return &s.Businesses
	case "departments":
		return &s.Departments
	case "employees":
		return &s.Employees
	case "links":
		return &s.Links
	}
	return nil
}

// EncodeBuckets returns one JSON payload per entry of Buckets.
func EncodeBuckets(s Snapshot) (map[string][]byte, error) {
	out := make(map[string][]byte, len(Buckets))
	for _, name := range Buckets {
		data, err := json.Marshal(s.bucket(name))
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", name, err)
		}
		out[name] = data
	}
	return out, nil
}

// DecodeBuckets rebuilds a Snapshot from bucket payloads. Unknown bucket
// names and empty payloads are skipped.
func DecodeBuckets(rows map[string][]byte) (Snapshot, error) {
	var s Snapshot
	for name, payload := range rows {
		target := s.bucket(name)
		if target == nil || len(payload) == 0 {
			continue
		}
		if err := json.Unmarshal(payload, target); err != nil {
			return Snapshot{}, fmt.Errorf("decode %s: %w", name, err)
		}
	}
	return s, nil
}
