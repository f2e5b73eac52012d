package log

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLog_WritesStructuredEntry(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf)
	SetMinLevel(LevelDebug)
	SetEnabled(true)

	Info(CatGraph, "node added", "id", "n1", "type", "source")

	out := buf.String()
	require.Contains(t, out, "[INFO]")
	require.Contains(t, out, "[graph]")
	require.Contains(t, out, "node added")
	require.Contains(t, out, "id=n1")
	require.Contains(t, out, "type=source")
}

func TestLog_MinLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf)
	SetMinLevel(LevelWarn)

	Debug(CatDoc, "ignored")
	Info(CatDoc, "ignored too")
	Warn(CatDoc, "kept")

	out := buf.String()
	require.NotContains(t, out, "ignored")
	require.Contains(t, out, "kept")
}

func TestLog_OddFieldCount(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf)
	SetMinLevel(LevelDebug)

	Error(CatHistory, "bad fields", "orphan")

	require.Contains(t, buf.String(), "orphan=<missing>")
}

func TestLog_ErrorErrNil(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf)
	SetMinLevel(LevelDebug)

	ErrorErr(CatRender, "render failed", nil)

	require.Contains(t, buf.String(), "error=<nil>")
}

func TestLevel_String(t *testing.T) {
	require.Equal(t, "DEBUG", LevelDebug.String())
	require.Equal(t, "INFO", LevelInfo.String())
	require.Equal(t, "WARN", LevelWarn.String())
	require.Equal(t, "ERROR", LevelError.String())
	require.Equal(t, "UNKNOWN", Level(99).String())
}
