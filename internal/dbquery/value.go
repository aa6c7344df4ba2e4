package dbquery

import (
	"encoding/json"
	"fmt"
	"time"
)

// Kind discriminates the scalar variants a result cell can hold. The
// shape of assistant-generated queries is only known at runtime, so
// cells carry an explicit tag instead of a bare interface value.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindTime
)

type Value struct {
	Kind Kind
	Str  string
	Num  float64
	Bool bool
	Time time.Time
}

func Null() Value                 { return Value{Kind: KindNull} }
func String(s string) Value       { return Value{Kind: KindString, Str: s} }
func Number(n float64) Value      { return Value{Kind: KindNumber, Num: n} }
func Boolean(b bool) Value        { return Value{Kind: KindBool, Bool: b} }
func Timestamp(t time.Time) Value { return Value{Kind: KindTime, Time: t} }

// MarshalJSON renders the natural JSON scalar for each variant, so a
// serialized row reads like the raw database output.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindNull:
		return []byte("null"), nil
	case KindString:
		return json.Marshal(v.Str)
	case KindNumber:
		return json.Marshal(v.Num)
	case KindBool:
		return json.Marshal(v.Bool)
	case KindTime:
		return json.Marshal(v.Time.Format(time.RFC3339))
	default:
		return nil, fmt.Errorf("unknown value kind %d", v.Kind)
	}
}

// fromDriver converts a database/sql scan result into a tagged Value.
// Unrecognized driver types degrade to their string rendering rather
// than failing the whole result set.
func fromDriver(raw any) Value {
	switch typed := raw.(type) {
	case nil:
		return Null()
	case []byte:
		return String(string(typed))
	case string:
		return String(typed)
	case int64:
		return Number(float64(typed))
	case int32:
		return Number(float64(typed))
	case int:
		return Number(float64(typed))
	case float64:
		return Number(typed)
	case float32:
		return Number(float64(typed))
	case bool:
		return Boolean(typed)
	case time.Time:
		return Timestamp(typed)
	default:
		return String(fmt.Sprint(typed))
	}
}
