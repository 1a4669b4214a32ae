package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ID is an opaque task identifier. The backend may send either a JSON string
// or a JSON number; both kinds are kept and compared by value.
type ID struct {
	raw     string
	numeric bool
}

// StringID returns an ID that encodes as a JSON string.
func StringID(s string) ID {
	return ID{raw: s}
}

// NumberID returns an ID that encodes as a JSON number.
// The text is canonicalized so that "5" and "5.0" compare equal. Integers
// too large for int64 keep their exact digits.
func NumberID(text string) ID {
	text = strings.TrimSpace(text)
	n, err := strconv.ParseInt(text, 10, 64)
	if err == nil {
		return ID{raw: strconv.FormatInt(n, 10), numeric: true}
	}
	if errors.Is(err, strconv.ErrRange) {
		return ID{raw: text, numeric: true}
	}
	if f, err := strconv.ParseFloat(text, 64); err == nil {
		return ID{raw: strconv.FormatFloat(f, 'f', -1, 64), numeric: true}
	}
	return ID{raw: text}
}

// IntID returns a numeric ID.
func IntID(n int64) ID {
	return ID{raw: strconv.FormatInt(n, 10), numeric: true}
}

// String returns the identifier as it appears in request paths.
func (id ID) String() string { return id.raw }

// IsZero reports whether the ID is unset.
func (id ID) IsZero() bool { return id.raw == "" && !id.numeric }

// IsNumeric reports whether the ID encodes as a JSON number.
func (id ID) IsNumeric() bool { return id.numeric }

// Equal compares two IDs by kind and value.
func (id ID) Equal(other ID) bool { return id == other }

// MarshalJSON implements json.Marshaler.
func (id ID) MarshalJSON() ([]byte, error) {
	if id.numeric {
		return []byte(id.raw), nil
	}
	return json.Marshal(id.raw)
}

// UnmarshalJSON implements json.Unmarshaler.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ID{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = StringID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid id: %s", data)
	}
	*id = NumberID(n.String())
	return nil
}

// Completion is the done state of a task. The backend encodes it either as a
// boolean or as a number; the encoding is preserved so write-back paths send
// what they received.
type Completion struct {
	isBool bool
	b      bool
	n      float64
}

// Bool returns a boolean completion.
func Bool(b bool) Completion { return Completion{isBool: true, b: b} }

// Number returns a numeric completion.
func Number(n float64) Completion { return Completion{n: n} }

// Done reports whether the task is completed: true and 1 are done.
func (c Completion) Done() bool {
	if c.isBool {
		return c.b
	}
	return c.n == 1
}

// IsBool reports whether the completion is boolean-encoded.
func (c Completion) IsBool() bool { return c.isBool }

// Flip returns the opposite state in the same encoding.
func (c Completion) Flip() Completion {
	if c.isBool {
		return Bool(!c.b)
	}
	if c.Done() {
		return Number(0)
	}
	return Number(1)
}

// Value returns the completion as a bool or float64.
func (c Completion) Value() any {
	if c.isBool {
		return c.b
	}
	return c.n
}

func (c Completion) String() string {
	if c.isBool {
		return strconv.FormatBool(c.b)
	}
	return strconv.FormatFloat(c.n, 'f', -1, 64)
}

// MarshalJSON implements json.Marshaler.
func (c Completion) MarshalJSON() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalJSON accepts booleans, numbers and numeric strings.
// Anything else decodes as 0.
func (c *Completion) UnmarshalJSON(data []byte) error {
	var v any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return err
	}
	switch t := v.(type) {
	case bool:
		*c = Bool(t)
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			f = 0
		}
		*c = Number(f)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			f = 0
		}
		*c = Number(f)
	default:
		*c = Number(0)
	}
	return nil
}

// Task represents a single task item in canonical shape.
type Task struct {
	ID          ID         `json:"id"`
	UserID      float64    `json:"userId"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	IsCompleted Completion `json:"isCompleted"`
}

// Draft carries the user-editable fields of a task.
type Draft struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// ToggleResult is the backend's answer to a toggle.
// Known is false when the response did not carry a completion value.
type ToggleResult struct {
	IsCompleted Completion
	Known       bool
}

// Credentials are the username and password sent to login and signup.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Record is one analytics data point: a "date" string plus a dynamic set of
// metrics. Metric values are float64 when numeric, otherwise the original
// decoded value.
type Record map[string]any

// DateKey is the record field holding the date.
const DateKey = "date"

// Date returns the record's date string.
func (r Record) Date() string {
	s, _ := r[DateKey].(string)
	return s
}

// Series is an ordered sequence of analytics records.
type Series []Record
