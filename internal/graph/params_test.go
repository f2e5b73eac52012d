package graph

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParams_Float(t *testing.T) {
	p := Params{"f": 1.5, "i": 2, "i64": int64(3), "s": "nope"}

	require.Equal(t, 1.5, p.Float("f", 0))
	require.Equal(t, 2.0, p.Float("i", 0))
	require.Equal(t, 3.0, p.Float("i64", 0))
	require.Equal(t, 9.0, p.Float("s", 9))
	require.Equal(t, 9.0, p.Float("missing", 9))
}

func TestParams_Int(t *testing.T) {
	p := Params{"i": 4, "f": 2.9}
	require.Equal(t, 4, p.Int("i", 0))
	require.Equal(t, 2, p.Int("f", 0), "float truncates")
	require.Equal(t, 7, p.Int("missing", 7))
}

func TestParams_StringBoolHas(t *testing.T) {
	p := Params{"s": "x", "b": true}
	require.Equal(t, "x", p.String("s", "d"))
	require.Equal(t, "d", p.String("missing", "d"))
	require.True(t, p.Bool("b", false))
	require.False(t, p.Bool("missing", false))
	require.True(t, p.Has("s"))
	require.False(t, p.Has("missing"))
}

func TestParams_Clone(t *testing.T) {
	p := Params{"k": "v"}
	c := p.Clone()
	c["k"] = "other"
	require.Equal(t, "v", p.String("k", ""))

	require.Nil(t, Params(nil).Clone())
}
