package models

import (
	"math"
	"math/big"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
)

func TestValueOf_Kinds(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)

	tests := []struct {
		name    string
		in      any
		kind    ValueKind
		display string
	}{
		{"nil", nil, KindNull, ""},
		{"int32", int32(42), KindInteger, "42"},
		{"int64", int64(-7), KindInteger, "-7"},
		{"uint64", uint64(1 << 40), KindInteger, "1099511627776"},
		{"uint64 max", uint64(math.MaxUint64), KindText, "18446744073709551615"},
		{"uint above int64", uint64(math.MaxInt64) + 1, KindText, "9223372036854775808"},
		{"float", 3.5, KindFloat, "3.5"},
		{"bool", true, KindBool, "true"},
		{"text", "PAID", KindText, "PAID"},
		{"utf8 bytes", []byte("hello"), KindBytes, "hello"},
		{"binary bytes", []byte{0xff, 0x00, 0x10}, KindBytes, "0xff0010"},
		{"time", ts, KindTime, "2024-03-01T12:30:00Z"},
		{"uuid bytes", [16]byte{0x55, 0x0e, 0x84, 0x00, 0xe2, 0x9b, 0x41, 0xd4, 0xa7, 0x16, 0x44, 0x66, 0x55, 0x44, 0x00, 0x00}, KindText, "550e8400-e29b-41d4-a716-446655440000"},
		{"numeric integer", pgtype.Numeric{Int: big.NewInt(1999), Exp: 0, Valid: true}, KindInteger, "1999"},
		{"numeric scaled", pgtype.Numeric{Int: big.NewInt(12), Exp: 2, Valid: true}, KindInteger, "1200"},
		{"numeric fraction", pgtype.Numeric{Int: big.NewInt(1250), Exp: -2, Valid: true}, KindFloat, "12.5"},
		{"numeric null", pgtype.Numeric{}, KindNull, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := ValueOf(tt.in)
			assert.Equal(t, tt.kind, v.Kind)
			assert.Equal(t, tt.display, v.String())
		})
	}
}

func TestValue_Int64(t *testing.T) {
	i, ok := ValueOf(int64(20)).Int64()
	assert.True(t, ok)
	assert.Equal(t, int64(20), i)

	i, ok = ValueOf(float64(80)).Int64()
	assert.True(t, ok)
	assert.Equal(t, int64(80), i)

	_, ok = ValueOf(2.5).Int64()
	assert.False(t, ok)

	i, ok = ValueOf("15").Int64()
	assert.True(t, ok)
	assert.Equal(t, int64(15), i)

	_, ok = Null.Int64()
	assert.False(t, ok)

	_, ok = ValueOf([]byte{1}).Int64()
	assert.False(t, ok)
}

func TestValue_Float64(t *testing.T) {
	f, ok := ValueOf(int64(3)).Float64()
	assert.True(t, ok)
	assert.Equal(t, 3.0, f)

	f, ok = ValueOf("7.25").Float64()
	assert.True(t, ok)
	assert.Equal(t, 7.25, f)

	_, ok = ValueOf(true).Float64()
	assert.False(t, ok)
}

func TestValueOf_CopiesBytes(t *testing.T) {
	buf := []byte("abc")
	v := ValueOf(buf)
	buf[0] = 'z'
	assert.Equal(t, "abc", v.String())
}
