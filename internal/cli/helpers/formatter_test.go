package helpers

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testRow struct {
	Name     string    `json:"name" header:"Kernel"`
	Launches int       `json:"launches" header:"Launches"`
	Hidden   string    `json:"hidden" header:"-"`
	Cached   bool      `json:"cached" header:"Cached"`
	Seen     time.Time `json:"seen"`
}

func TestNewFormatter(t *testing.T) {
	for _, f := range SupportedFormats {
		got, err := NewFormatter(f)
		require.NoError(t, err)
		assert.NotNil(t, got)
	}

	_, err := NewFormatter("csv")
	assert.EqualError(t, err, "unsupported format: csv")
}

func TestTableFormatter(t *testing.T) {
	rows := []*testRow{
		{Name: "ampere_sgemm_128x64_nn", Launches: 12, Hidden: "x", Cached: true},
		{Name: "", Launches: 3},
	}

	var buf bytes.Buffer
	require.NoError(t, (&TableFormatter{}).Format(rows, &buf))

	assert.Equal(t,
		"Kernel                   Launches   Cached\n"+
			"ampere_sgemm_128x64_nn   12         yes\n"+
			"-                        3          no\n",
		buf.String())
}

func TestTableFormatter_EmptyAndInvalid(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&TableFormatter{}).Format([]testRow{}, &buf))
	assert.Empty(t, buf.String())

	assert.EqualError(t, (&TableFormatter{}).Format(testRow{}, &buf), "data must be a slice")
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&JSONFormatter{}).Format(map[string]int{"kernels": 2}, &buf))
	assert.Equal(t, "{\n  \"kernels\": 2\n}\n", buf.String())

	buf.Reset()
	require.NoError(t, (&JSONFormatter{Color: true}).Format(map[string]int{"kernels": 2}, &buf))
	assert.Contains(t, buf.String(), "kernels")
	assert.Contains(t, buf.String(), "2")
}

func TestValidateFormat(t *testing.T) {
	f, err := ValidateFormat("json")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	_, err = ValidateFormat("yaml")
	assert.EqualError(t, err, `unsupported format "yaml", must be one of: table, json`)
}
