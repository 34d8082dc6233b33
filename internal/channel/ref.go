package channel

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Ref is a platform identifier that arrives either as a bare value ("C1")
// or as an object carrying it ({"id": "C1"}). Both decode to the same Ref.
type Ref string

// UnmarshalJSON accepts a string, a number or an object with an "id" field.
func (r *Ref) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*r = ""
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = Ref(strings.TrimSpace(s))
		return nil
	case '{':
		var obj struct {
			ID json.RawMessage `json:"id"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		if len(obj.ID) == 0 {
			*r = ""
			return nil
		}
		return r.UnmarshalJSON(obj.ID)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("unsupported ref shape: %s", string(data))
		}
		*r = Ref(n.String())
		return nil
	}
}

// String returns the canonical id.
func (r Ref) String() string {
	return string(r)
}

// IntRef builds a Ref from a numeric platform id.
func IntRef(id int64) Ref {
	return Ref(strconv.FormatInt(id, 10))
}

// Refs carries the identifiers a raw inbound event was addressed with.
type Refs struct {
	Channel Ref `json:"channel"`
	User    Ref `json:"user"`
}
