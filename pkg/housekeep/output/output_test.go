package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func sampleReport() *Report {
	r := &Report{Title: "Duplicate files"}
	r.AddField("Root", "/data")
	s := r.AddSection("Group 1 (2 copies)", "SIZE", "PATH")
	s.Key = "deadbeef"
	s.AddRow("1.0 KiB", "/data/a.txt")
	s.AddRow("1.0 KiB", "/data/sub/a.txt")
	s.Note = "... and 3 more"
	empty := r.AddSection("Temporary files")
	empty.Empty = "none found"
	r.AddSummary("Wasted", "1.0 KiB")
	r.Warnings = []string{"1 file could not be read"}
	return r
}

func TestRegistry(t *testing.T) {
	assert.Equal(t, []string{"json", "plain", "pretty", "yaml"}, Available())

	_, err := Get("xml")
	assert.ErrorIs(t, err, ErrUnknownFormatter)

	reg := NewRegistry()
	reg.Register("custom", func() Formatter { return &PlainFormatter{} })
	f, err := reg.Get("custom")
	require.NoError(t, err)
	assert.IsType(t, &PlainFormatter{}, f)
}

func TestPlainFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&PlainFormatter{}).Format(&buf, sampleReport()))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "Duplicate files\nRoot: /data\n"))
	assert.Contains(t, out, "SIZE     PATH")
	assert.Contains(t, out, "1.0 KiB  /data/sub/a.txt")
	assert.Contains(t, out, "... and 3 more")
	assert.Contains(t, out, "none found")
	assert.Contains(t, out, "Wasted: 1.0 KiB")
	assert.Contains(t, out, "warning: 1 file could not be read")
}

func TestPrettyFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&PrettyFormatter{}).Format(&buf, sampleReport()))

	out := buf.String()
	for _, want := range []string{"Duplicate files", "/data/sub/a.txt", "Group 1 (2 copies)", "none found", "Wasted:", "Warnings:"} {
		assert.Contains(t, out, want)
	}
}

func TestJSONFormatter_EncodesData(t *testing.T) {
	r := sampleReport()
	r.Data = map[string]int{"groups": 1}

	var buf bytes.Buffer
	require.NoError(t, (&JSONFormatter{}).Format(&buf, r))

	var got map[string]int
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, 1, got["groups"])
}

func TestJSONFormatter_FallsBackToReport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&JSONFormatter{}).Format(&buf, sampleReport()))

	var got Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "Duplicate files", got.Title)
	require.Len(t, got.Sections, 2)
	assert.Len(t, got.Sections[0].Rows, 2)
}

func TestYAMLFormatter(t *testing.T) {
	r := sampleReport()
	r.Data = struct {
		Files int `yaml:"files"`
	}{Files: 7}

	var buf bytes.Buffer
	require.NoError(t, (&YAMLFormatter{}).Format(&buf, r))

	var got map[string]int
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, 7, got["files"])
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, "plain", sampleReport()))
	assert.Contains(t, buf.String(), "Duplicate files")

	assert.ErrorIs(t, Write(&buf, "nope", sampleReport()), ErrUnknownFormatter)
}

func TestKeyColor_Stable(t *testing.T) {
	assert.Equal(t, KeyColor("abc123"), KeyColor("abc123"))
	assert.Contains(t, accentPalette, KeyColor("anything"))
}

func TestIsStructured(t *testing.T) {
	assert.True(t, IsStructured("json"))
	assert.True(t, IsStructured("yaml"))
	assert.False(t, IsStructured("pretty"))
	assert.False(t, IsStructured("plain"))
}
