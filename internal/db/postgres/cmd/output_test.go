package cmd

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestConfirm(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		def      bool
		expected bool
	}{
		{name: "empty answer takes default yes", input: "\n", def: true, expected: true},
		{name: "empty answer takes default no", input: "\n", def: false, expected: false},
		{name: "end of input", input: "", def: true, expected: true},
		{name: "yes", input: "yes\n", def: false, expected: true},
		{name: "short yes with spaces", input: "  Y \n", def: false, expected: true},
		{name: "no", input: "no\n", def: true, expected: false},
		{name: "anything else", input: "maybe\n", def: true, expected: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := &bytes.Buffer{}
			res, err := confirm(bufio.NewReader(strings.NewReader(tt.input)), out, "Do you want to proceed?", tt.def)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, res)
			assert.True(t, strings.HasPrefix(out.String(), "Do you want to proceed? (yes/no)"))
		})
	}
}

func TestPrintStructured(t *testing.T) {
	v := &SchemaTables{Schema: "external"}

	buf := &bytes.Buffer{}
	require.NoError(t, printStructured(buf, FormatJson, v))
	assert.Equal(t, "external", gjson.Get(buf.String(), "schema").String())

	buf.Reset()
	require.NoError(t, printStructured(buf, FormatYaml, v))
	assert.Contains(t, buf.String(), "schema: external")

	require.ErrorIs(t, printStructured(buf, "xml", v), errUnknownFormat)
	require.ErrorIs(t, ValidateFormat("xml"), errUnknownFormat)
	require.NoError(t, ValidateFormat(FormatText))
}
