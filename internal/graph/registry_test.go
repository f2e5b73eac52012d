package graph

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type stubFactory struct {
	name        string
	createErr   error
	validateErr error
	nilResult   bool
}

func (f *stubFactory) TypeName() string { return f.name }

func (f *stubFactory) Create(params Params) (Capability, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	if f.nilResult {
		return nil, nil
	}
	return &constCapability{value: params.String("value", "")}, nil
}

func (f *stubFactory) ValidateParameters(params Params) error {
	return f.validateErr
}

func TestRegistry_CreateNode(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubFactory{name: "const"})

	n, err := r.CreateNode("const", Params{"value": "hello"})
	require.NoError(t, err)
	require.NotEmpty(t, n.ID())
	require.Equal(t, "const", n.TypeName())
	require.Equal(t, "hello", n.Params().String("value", ""))

	out, err := n.capability.Compute(nil)
	require.NoError(t, err)
	require.Equal(t, "hello", out)
}

func TestRegistry_UnknownTypeEnumeratesRegisteredNames(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubFactory{name: "source"})
	r.Register(&stubFactory{name: "blur"})

	_, err := r.CreateNode("nope", nil)
	require.ErrorIs(t, err, ErrUnknownType)

	var ute *UnknownTypeError
	require.ErrorAs(t, err, &ute)
	require.Equal(t, "nope", ute.TypeName)
	require.Equal(t, []string{"blur", "source"}, ute.Registered)
	require.Contains(t, err.Error(), "blur, source")
}

func TestRegistry_CreateNodeEmptyRegistry(t *testing.T) {
	r := NewRegistry()
	_, err := r.CreateNode("anything", nil)
	require.ErrorIs(t, err, ErrUnknownType)
}

func TestRegistry_ParameterValidationAborts(t *testing.T) {
	bad := errors.New("sigma must be positive")
	r := NewRegistry()
	r.Register(&stubFactory{name: "blur", validateErr: bad})

	n, err := r.CreateNode("blur", Params{"sigma": -1.0})
	require.ErrorIs(t, err, bad)
	require.Nil(t, n, "no partially built node on validation failure")
}

func TestRegistry_CreateFailureAborts(t *testing.T) {
	boom := errors.New("cannot build")
	r := NewRegistry()
	r.Register(&stubFactory{name: "broken", createErr: boom})

	n, err := r.CreateNode("broken", nil)
	require.ErrorIs(t, err, boom)
	require.Nil(t, n)
}

func TestRegistry_NodeSelfValidationAborts(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubFactory{name: "empty", nilResult: true})

	n, err := r.CreateNode("empty", nil)
	require.ErrorIs(t, err, ErrNilCapability)
	require.Nil(t, n)
}

func TestRegistry_ReregisterOverwrites(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubFactory{name: "dup", createErr: errors.New("old")})
	r.Register(&stubFactory{name: "dup"})

	_, err := r.CreateNode("dup", Params{"value": "new"})
	require.NoError(t, err)
	require.Equal(t, []string{"dup"}, r.Types())
}

func TestRegistry_Has(t *testing.T) {
	r := NewRegistry()
	require.False(t, r.Has("source"))
	r.Register(&stubFactory{name: "source"})
	require.True(t, r.Has("source"))
}

func TestRegistry_FreshIDPerNode(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubFactory{name: "const"})

	a, err := r.CreateNode("const", nil)
	require.NoError(t, err)
	b, err := r.CreateNode("const", nil)
	require.NoError(t, err)
	require.NotEqual(t, a.ID(), b.ID())
}
