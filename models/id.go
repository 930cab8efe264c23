package models

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// ID is a backend record identifier. The backend is not consistent about how it
// serialises ids (plain strings, numbers, extended-JSON ObjectIds or populated
// documents), so decoding never fails: anything unrecognised becomes the empty ID.
type ID string

func (id ID) String() string { return string(id) }

// IsZero reports whether the id is missing.
func (id ID) IsZero() bool { return id == "" }

func (id *ID) UnmarshalJSON(data []byte) error {
	*id = decodeID(bytes.TrimSpace(data))
	return nil
}

func decodeID(data []byte) ID {
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return ""
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return ""
		}
		return ID(s)
	case '{':
		var doc map[string]json.RawMessage
		if err := json.Unmarshal(data, &doc); err != nil {
			return ""
		}
		for _, key := range []string{"$oid", "_id", "id"} {
			if raw, ok := doc[key]; ok {
				return decodeID(bytes.TrimSpace(raw))
			}
		}
		return ""
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return ""
		}
		if i, err := n.Int64(); err == nil {
			return ID(strconv.FormatInt(i, 10))
		}
		return ID(n.String())
	}
}
