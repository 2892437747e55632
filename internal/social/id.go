package social

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ID is a record identifier. The backend issues numeric ids for some
// resources and string ids for others; ID accepts both on the wire. An id
// in canonical decimal form (no sign, no leading zeros) is written as a
// JSON number, anything else as a JSON string.
type ID string

func (id ID) String() string { return string(id) }

// IsZero reports whether the id is unset.
func (id ID) IsZero() bool { return id == "" }

func (id ID) MarshalJSON() ([]byte, error) {
	if id == "" {
		return []byte(`null`), nil
	}
	if id.canonicalInt() {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// canonicalInt reports whether id is exactly how strconv formats an int64.
func (id ID) canonicalInt() bool {
	n, err := strconv.ParseInt(string(id), 10, 64)
	return err == nil && strconv.FormatInt(n, 10) == string(id)
}

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte(`null`)) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// IDFromInt formats n as an ID.
func IDFromInt(n int64) ID {
	return ID(strconv.FormatInt(n, 10))
}
