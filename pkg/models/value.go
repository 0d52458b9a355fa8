package models

import (
	"database/sql/driver"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/spf13/cast"
)

// ValueKind classifies a scalar read from the database.
type ValueKind int

const (
	KindNull ValueKind = iota
	KindBool
	KindInteger
	KindFloat
	KindText
	KindBytes
	KindTime
	KindOther
)

var kindNames = map[ValueKind]string{
	KindNull:    "null",
	KindBool:    "bool",
	KindInteger: "integer",
	KindFloat:   "float",
	KindText:    "text",
	KindBytes:   "bytes",
	KindTime:    "time",
	KindOther:   "other",
}

func (k ValueKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Value is a driver scalar tagged with its kind. Adapters return raw driver
// values; ValueOf normalizes them so masking and counting never need to
// type-switch on driver-specific types.
type Value struct {
	Kind ValueKind
	raw  any
}

// Null is the absent value.
var Null = Value{Kind: KindNull}

// ValueOf wraps a driver value.
func ValueOf(v any) Value {
	switch t := v.(type) {
	case nil:
		return Null
	case Value:
		return t
	case bool:
		return Value{Kind: KindBool, raw: t}
	case uint:
		return ValueOf(uint64(t))
	case uint64:
		if t > math.MaxInt64 {
			return ValueOf(new(big.Int).SetUint64(t))
		}
		return Value{Kind: KindInteger, raw: int64(t)}
	case int, int8, int16, int32, int64, uint8, uint16, uint32:
		return Value{Kind: KindInteger, raw: cast.ToInt64(t)}
	case float32:
		return Value{Kind: KindFloat, raw: float64(t)}
	case float64:
		return Value{Kind: KindFloat, raw: t}
	case string:
		return Value{Kind: KindText, raw: t}
	case []byte:
		cp := make([]byte, len(t))
		copy(cp, t)
		return Value{Kind: KindBytes, raw: cp}
	case time.Time:
		return Value{Kind: KindTime, raw: t}
	case [16]byte:
		return Value{Kind: KindText, raw: uuid.UUID(t).String()}
	case uuid.UUID:
		return Value{Kind: KindText, raw: t.String()}
	case pgtype.Numeric:
		return numericValue(t)
	case *big.Int:
		if t == nil {
			return Null
		}
		if t.IsInt64() {
			return Value{Kind: KindInteger, raw: t.Int64()}
		}
		return Value{Kind: KindText, raw: t.String()}
	case map[string]any, []any:
		// json/jsonb columns decoded by the driver
		b, err := json.Marshal(t)
		if err != nil {
			return Value{Kind: KindOther, raw: fmt.Sprint(t)}
		}
		return Value{Kind: KindText, raw: string(b)}
	case driver.Valuer:
		dv, err := t.Value()
		if err != nil {
			return Value{Kind: KindOther, raw: fmt.Sprint(t)}
		}
		if _, again := dv.(driver.Valuer); again {
			return Value{Kind: KindOther, raw: fmt.Sprint(dv)}
		}
		return ValueOf(dv)
	case fmt.Stringer:
		return Value{Kind: KindOther, raw: t.String()}
	default:
		return Value{Kind: KindOther, raw: t}
	}
}

func numericValue(n pgtype.Numeric) Value {
	if !n.Valid {
		return Null
	}
	if n.NaN || n.InfinityModifier != pgtype.Finite {
		f, err := n.Float64Value()
		if err == nil && f.Valid {
			return Value{Kind: KindFloat, raw: f.Float64}
		}
		return Value{Kind: KindOther, raw: fmt.Sprint(n)}
	}
	if n.Exp >= 0 {
		i := new(big.Int).Set(n.Int)
		if n.Exp > 0 {
			i.Mul(i, new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n.Exp)), nil))
		}
		if i.IsInt64() {
			return Value{Kind: KindInteger, raw: i.Int64()}
		}
		return Value{Kind: KindText, raw: i.String()}
	}
	f, err := n.Float64Value()
	if err != nil || !f.Valid {
		return Value{Kind: KindOther, raw: fmt.Sprint(n)}
	}
	return Value{Kind: KindFloat, raw: f.Float64}
}

// IsNull reports whether the value is absent.
func (v Value) IsNull() bool {
	return v.Kind == KindNull
}

// Raw returns the normalized underlying value.
func (v Value) Raw() any {
	return v.raw
}

// Int64 returns the value as an integer when it has an integral representation.
// Float values are accepted only when they carry no fraction (SQLite may
// return counts as REAL after arithmetic).
func (v Value) Int64() (int64, bool) {
	switch v.Kind {
	case KindInteger:
		return v.raw.(int64), true
	case KindFloat:
		f := v.raw.(float64)
		if f == float64(int64(f)) {
			return int64(f), true
		}
		return 0, false
	case KindText:
		i, err := cast.ToInt64E(v.raw)
		return i, err == nil
	default:
		return 0, false
	}
}

// Float64 returns the value as a float when it is numeric.
func (v Value) Float64() (float64, bool) {
	switch v.Kind {
	case KindInteger:
		return float64(v.raw.(int64)), true
	case KindFloat:
		return v.raw.(float64), true
	case KindText:
		f, err := cast.ToFloat64E(v.raw)
		return f, err == nil
	default:
		return 0, false
	}
}

// String returns the display form used for samples and top values.
// Null renders as the empty string; callers check IsNull first.
func (v Value) String() string {
	switch v.Kind {
	case KindNull:
		return ""
	case KindTime:
		return v.raw.(time.Time).Format(time.RFC3339Nano)
	case KindBytes:
		b := v.raw.([]byte)
		if utf8.Valid(b) {
			return string(b)
		}
		return "0x" + hex.EncodeToString(b)
	}
	if s, err := cast.ToStringE(v.raw); err == nil {
		return s
	}
	return fmt.Sprint(v.raw)
}
