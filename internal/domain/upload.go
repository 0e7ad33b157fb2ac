package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// UploadRecord is one uploaded-file ledger entry. Name, Size and LastModified
// form the deduplication key; any other JSON members are kept in Extra and
// written back unchanged.
type UploadRecord struct {
	Name         string
	Size         int64
	LastModified int64
	Extra        map[string]json.RawMessage
}

// Key returns the composite deduplication key.
func (r UploadRecord) Key() string {
	return r.Name + "_" + strconv.FormatInt(r.Size, 10) + "_" + strconv.FormatInt(r.LastModified, 10)
}

// MarshalJSON writes the known fields alongside the pass-through members.
func (r UploadRecord) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(r.Extra)+3)
	for k, v := range r.Extra {
		m[k] = v
	}
	m["name"] = r.Name
	m["size"] = r.Size
	m["lastModified"] = r.LastModified
	return json.Marshal(m)
}

// UnmarshalJSON reads the key fields and keeps every other member verbatim.
func (r *UploadRecord) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode upload record: %w", err)
	}
	var rec UploadRecord
	if v, ok := raw["name"]; ok {
		if err := json.Unmarshal(v, &rec.Name); err != nil {
			return fmt.Errorf("decode upload record name: %w", err)
		}
		delete(raw, "name")
	}
	if v, ok := raw["size"]; ok {
		if err := json.Unmarshal(v, &rec.Size); err != nil {
			return fmt.Errorf("decode upload record size: %w", err)
		}
		delete(raw, "size")
	}
	if v, ok := raw["lastModified"]; ok {
		if err := json.Unmarshal(v, &rec.LastModified); err != nil {
			return fmt.Errorf("decode upload record lastModified: %w", err)
		}
		delete(raw, "lastModified")
	}
	if len(raw) > 0 {
		rec.Extra = raw
	}
	*r = rec
	return nil
}

// LedgerSaveResult summarizes a ledger save.
type LedgerSaveResult struct {
	Saved      int
	Duplicates int
	Total      int
	Err        error
}
