package logger

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel("warning"))
	assert.Equal(t, zerolog.ErrorLevel, ParseLevel(" error "))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("verbose"))
}

func TestInit_JSON(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "info", Format: "json", Output: &buf})
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	log.Debug().Msg("hidden")
	log.Info().Str("book", "b1").Msg("checked out")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"book":"b1"`)
	assert.Contains(t, out, `"message":"checked out"`)
}
