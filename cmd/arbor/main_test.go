package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const treesYAML = `
trees:
  - id: 10
    type: set-property
    options:
      key: campaign
      value: spring
    children:
      - id: 11
        type: tag
        options:
          tags: [spring]
      - id: 12
        type: redirect
        options:
          url: https://example.com/offer
  - id: 20
    type: log
    children:
      - id: 21
        type: ghost
`

func writeTrees(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "arbor.yaml")
	require.NoError(t, os.WriteFile(path, []byte(treesYAML), 0644))
	return path
}

// execute runs the root command. Flags keep their values between calls,
// so every test passes the flags it depends on.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(append(args, "--log-level", "error"))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "arbor version "))
}

func TestLinkEncodeDecode(t *testing.T) {
	out, err := execute(t, "", "link", "encode", "10", "--contact-id", "4", "--uri", "/landing/", "--absolute", "--base-url", "https://go.example.com")
	require.NoError(t, err)
	token := strings.TrimSpace(out)
	assert.True(t, strings.HasPrefix(token, "https://go.example.com/a."), token)
	assert.True(t, strings.HasSuffix(token, ".10.4/landing"), token)

	out, err = execute(t, "", "link", "decode", token)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, float64(10), decoded["action_id"])
	assert.Equal(t, float64(4), decoded["contact_id"])
	assert.Equal(t, "landing", decoded["custom_uri"])

	_, err = execute(t, "", "link", "decode", "a.1.10")
	assert.ErrorContains(t, err, "invalid link parameter")
}

func TestLinkRewrite(t *testing.T) {
	out, err := execute(t, "", "link", "encode", "30", "--contact-id", "0", "--uri", "", "--absolute=false")
	require.NoError(t, err)
	plain := strings.TrimSpace(out)

	out, err = execute(t, "Click "+plain+" now", "link", "rewrite", "--contact-id", "8")
	require.NoError(t, err)
	assert.Contains(t, out, ".30.8 now")
	assert.True(t, strings.HasPrefix(out, "Click /a."), out)
}

func TestRun(t *testing.T) {
	trees := writeTrees(t)

	out, err := execute(t, "", "run", "10", "--trees", trees, "--email", "ann@example.com", "--graph")
	require.NoError(t, err)

	resultJSON, diagram, found := strings.Cut(out, "graph TD")
	require.True(t, found, out)

	var res map[string]any
	require.NoError(t, json.Unmarshal([]byte(resultJSON), &res))
	assert.Equal(t, "success", res["status"])
	assert.Equal(t, "https://example.com/offer", res["redirect"])
	assert.Equal(t, "added", res["contact_state"])
	assert.Contains(t, diagram, "n12")
}

func TestRunUnknownAction(t *testing.T) {
	_, err := execute(t, "", "run", "99", "--trees", writeTrees(t), "--graph=false")
	assert.ErrorContains(t, err, "action not found")
}

func TestValidate(t *testing.T) {
	out, err := execute(t, "", "validate", "--trees", writeTrees(t))
	require.Error(t, err)
	assert.Contains(t, out, "tree 20")
	assert.Contains(t, out, `unregistered type "ghost"`)
	assert.NotContains(t, out, "tree 10")
}

func TestGraph(t *testing.T) {
	out, err := execute(t, "", "graph", "10", "--trees", writeTrees(t))
	require.NoError(t, err)
	assert.Contains(t, out, "graph TD")
	assert.NotContains(t, out, "n21")
}

func TestInspect(t *testing.T) {
	out, err := execute(t, "", "inspect", "20", "--trees", writeTrees(t), "--plain")
	require.NoError(t, err)
	assert.Contains(t, out, "# Action 20")
	assert.Contains(t, out, "**not registered**")
}

func TestParseActionID(t *testing.T) {
	id, err := parseActionID(" 12 ")
	require.NoError(t, err)
	assert.Equal(t, int32(12), id)

	for _, bad := range []string{"0", "-1", "12abc", ""} {
		_, err := parseActionID(bad)
		assert.Error(t, err, bad)
	}
}
