package sandbox

import (
	"bytes"
	"encoding/json"
	"math"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// Row is one result row. It marshals to a JSON object whose keys follow the
// result column order. A repeated column name keeps its first position and its
// last value.
type Row struct {
	Columns []string
	Values  []any
}

func (r Row) Get(column string) (any, bool) {
	found := false
	var value any
	for idx, name := range r.Columns {
		if name == column && idx < len(r.Values) {
			value = r.Values[idx]
			found = true
		}
	}
	return value, found
}

func (r Row) MarshalJSON() ([]byte, error) {
	positions := make(map[string]int, len(r.Columns))
	keys := make([]string, 0, len(r.Columns))
	values := make([]any, 0, len(r.Columns))
	for idx, name := range r.Columns {
		var value any
		if idx < len(r.Values) {
			value = r.Values[idx]
		}
		if pos, ok := positions[name]; ok {
			values[pos] = value
			continue
		}
		positions[name] = len(keys)
		keys = append(keys, name)
		values = append(values, value)
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for idx, key := range keys {
		if idx > 0 {
			buf.WriteByte(',')
		}
		encodedKey, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(encodedKey)
		buf.WriteByte(':')
		encodedValue, err := json.Marshal(normalizeValue(values[idx]))
		if err != nil {
			return nil, err
		}
		buf.Write(encodedValue)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// normalizeValue turns driver values that do not render well as JSON into
// plain strings or numbers. Non-finite numbers use their Postgres spelling.
func normalizeValue(value any) any {
	switch v := value.(type) {
	case [16]byte:
		return uuid.UUID(v).String()
	case []byte:
		return string(v)
	case float64:
		return finiteOrString(v)
	case float32:
		return finiteOrString(float64(v))
	case pgtype.Numeric:
		if !v.Valid {
			return nil
		}
		switch {
		case v.NaN:
			return "NaN"
		case v.InfinityModifier == pgtype.Infinity:
			return "Infinity"
		case v.InfinityModifier == pgtype.NegativeInfinity:
			return "-Infinity"
		}
		f, err := v.Float64Value()
		if err != nil || !f.Valid {
			return nil
		}
		return finiteOrString(f.Float64)
	default:
		return value
	}
}

func finiteOrString(f float64) any {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	return f
}
