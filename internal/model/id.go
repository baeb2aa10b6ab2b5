package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

type idKind uint8

const (
	idNone idKind = iota
	idNumber
	idString
)

// ID identifies a task. Backends emit either numbers or strings for the primary key;
// numeric strings are normalized to numbers at decode time so two IDs for the same
// task always compare equal with ==.
type ID struct {
	kind idKind
	num  int64
	str  string
}

func NumericID(n int64) ID { return ID{kind: idNumber, num: n} }

// NormalizeID coerces v into an ID. Numbers and numeric strings become numeric ids,
// any other string passes through unchanged. Normalizing an ID returns it as is.
func NormalizeID(v any) ID {
	switch t := v.(type) {
	case nil:
		return ID{}
	case ID:
		return t
	case int:
		return NumericID(int64(t))
	case int32:
		return NumericID(int64(t))
	case int64:
		return NumericID(t)
	case uint:
		return NumericID(int64(t))
	case float64:
		if t == math.Trunc(t) && math.Abs(t) < math.MaxInt64 {
			return NumericID(int64(t))
		}
		return ID{kind: idString, str: strconv.FormatFloat(t, 'f', -1, 64)}
	case json.Number:
		return ParseID(t.String())
	case string:
		return ParseID(t)
	default:
		return ParseID(fmt.Sprint(t))
	}
}

// ParseID parses a textual identifier, e.g. a CLI argument or URL segment.
func ParseID(s string) ID {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return ID{}
	}
	if n, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return NumericID(n)
	}
	return ID{kind: idString, str: s}
}

func (id ID) IsZero() bool    { return id.kind == idNone }
func (id ID) IsNumeric() bool { return id.kind == idNumber }

// Int64 returns the numeric value when the id is numeric.
func (id ID) Int64() (int64, bool) {
	if id.kind != idNumber {
		return 0, false
	}
	return id.num, true
}

func (id ID) String() string {
	switch id.kind {
	case idNumber:
		return strconv.FormatInt(id.num, 10)
	case idString:
		return id.str
	default:
		return ""
	}
}

func (id ID) MarshalJSON() ([]byte, error) {
	switch id.kind {
	case idNumber:
		return []byte(strconv.FormatInt(id.num, 10)), nil
	case idString:
		return json.Marshal(id.str)
	default:
		return []byte("null"), nil
	}
}

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*id = ID{}
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("decode id: %w", err)
		}
		*id = ParseID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("decode id: %w", err)
	}
	// Non-integral numbers keep their literal text as a string id.
	*id = NormalizeID(n)
	return nil
}
