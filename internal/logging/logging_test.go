package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWriter(&buf, "warn", "json")
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("queue full", "depth", 3)

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "queue full", line["msg"])
	require.Equal(t, "WARN", line["level"])
	require.EqualValues(t, 3, line["depth"])
}

func TestNewWriter_Text(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWriter(&buf, "DEBUG", "text")
	require.NoError(t, err)

	logger.Debug("tick", "event_id", "01HZ")
	require.Contains(t, buf.String(), "level=DEBUG")
	require.Contains(t, buf.String(), "event_id=01HZ")
}

func TestNewWriter_Errors(t *testing.T) {
	_, err := NewWriter(&bytes.Buffer{}, "loud", "text")
	require.Error(t, err)
	_, err = NewWriter(&bytes.Buffer{}, "info", "xml")
	require.Error(t, err)
}
