package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theonlysinjin/team-retro/internal/codec"
)

// execute runs the root command with args and returns stdout and the error.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// decodeData unmarshals the data field of a JSON response into v.
func decodeData(t *testing.T, out string, v any) {
	t.Helper()
	var resp struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Equal(t, "ok", resp.Status)
	require.NoError(t, json.Unmarshal(resp.Data, v))
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "retro.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestRoot_InvalidFormat(t *testing.T) {
	_, err := execute(t, "color", "Alice", "--format", "xml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "invalid format")
}

func TestRoot_BadConfig(t *testing.T) {
	path := writeConfig(t, "card_widht: 100\n")

	_, err := execute(t, "color", "Alice", "--config", path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestColor(t *testing.T) {
	out, err := execute(t, "color", "Alice", "Bob")
	require.NoError(t, err)
	assert.Contains(t, out, codec.DisplayColor("Alice")+"\tAlice")
	assert.Contains(t, out, codec.DisplayColor("Bob")+"\tBob")

	out, err = execute(t, "color", "Alice", "--format", "json")
	require.NoError(t, err)
	var colors []NameColor
	decodeData(t, out, &colors)
	assert.Equal(t, []NameColor{{Name: "Alice", Color: codec.DisplayColor("Alice")}}, colors)
}

func TestSealOpen_RoundTrip(t *testing.T) {
	out, err := execute(t, "seal", "--code", "abc234", "--content", "Ship it",
		"--color", "Blue", "--category", "well", "--format", "json")
	require.NoError(t, err)
	var sealed map[string]string
	decodeData(t, out, &sealed)
	ciphertext := sealed["ciphertext"]
	require.NotEmpty(t, ciphertext)

	out, err = execute(t, "open", "--code", "ABC234", ciphertext)
	require.NoError(t, err)
	assert.Equal(t, "\"Ship it\" #bfdbfe [well]\n", out)
}

func TestOpen_Group(t *testing.T) {
	name := "Wins"
	key := codec.DeriveKey("ABC234")
	ciphertext, err := codec.Encrypt(key, map[string]any{"name": name})
	require.NoError(t, err)

	out, err := execute(t, "open", "--code", "ABC234", ciphertext, "--format", "json")
	require.NoError(t, err)
	var got struct {
		Kind    string         `json:"kind"`
		Payload map[string]any `json:"payload"`
	}
	decodeData(t, out, &got)
	assert.Equal(t, "group", got.Kind)
	assert.Equal(t, "Wins", got.Payload["name"])
}

func TestOpen_WrongCode(t *testing.T) {
	out, err := execute(t, "seal", "--code", "ABC234", "--content", "secret")
	require.NoError(t, err)

	out, err = execute(t, "open", "--code", "XYZ789", strings.TrimSpace(out))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.ErrorIs(t, err, codec.ErrDecrypt)
	assert.Contains(t, out, "Error [DECRYPT]")
}

func TestSeal_Validation(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"bad code", []string{"--code", "ABC1", "--content", "x"}},
		{"unknown color", []string{"--code", "ABC234", "--content", "x", "--color", "teal"}},
		{"unknown category", []string{"--code", "ABC234", "--content", "x", "--category", "meh"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, append([]string{"seal"}, tt.args...)...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
		})
	}
}

func TestWhoami(t *testing.T) {
	prefsPath := filepath.Join(t.TempDir(), "nested", "prefs.db")
	cfg := writeConfig(t, "prefs_path: "+prefsPath+"\n")

	out, err := execute(t, "whoami", "--config", cfg)
	require.NoError(t, err)
	assert.Equal(t, "(no name saved)\n", out)

	out, err = execute(t, "whoami", "--config", cfg, "--set", "  Alice ")
	require.NoError(t, err)
	assert.Equal(t, "Alice\n", out)

	out, err = execute(t, "whoami", "--config", cfg, "--format", "json")
	require.NoError(t, err)
	var got map[string]string
	decodeData(t, out, &got)
	assert.Equal(t, "Alice", got["name"])

	out, err = execute(t, "whoami", "--config", cfg, "--clear")
	require.NoError(t, err)
	assert.Equal(t, "(no name saved)\n", out)

	_, err = execute(t, "whoami", "--config", cfg, "--clear", "--set", "Bob")
	require.Error(t, err)
}

func TestDemo(t *testing.T) {
	cfg := writeConfig(t, "base_url: https://retro.example\n")

	out, err := execute(t, "demo", "--host", "Alice", "--guest", "Bob", "--config", cfg, "--format", "json")
	require.NoError(t, err)

	var board DemoBoard
	decodeData(t, out, &board)
	assert.Len(t, board.Code, 6)
	assert.Equal(t, "https://retro.example/session/"+board.Code, board.ShareLink)
	assert.True(t, strings.HasPrefix(board.HostLink, board.ShareLink+"?h="))
	assert.Equal(t, 1, board.Groups)

	require.Len(t, board.Members, 2)
	assert.Equal(t, "Alice", board.Members[0].Name)
	assert.True(t, board.Members[0].Self)
	assert.Equal(t, "Bob", board.Members[1].Name)

	require.Len(t, board.Cards, 4)
	byContent := make(map[string]DemoCard)
	for _, c := range board.Cards {
		byContent[c.Content] = c
	}
	assert.Equal(t, 2, byContent["Shipped the beta"].Votes)
	assert.Equal(t, "Release went smoothly", byContent["Shipped the beta"].Group)
	assert.Equal(t, "Release went smoothly", byContent["Release went smoothly"].Group)
	assert.Empty(t, byContent["Flaky CI"].Group)
	assert.Equal(t, "badly", byContent["Flaky CI"].Category)
	assert.Equal(t, "Bob", byContent["More pairing"].Author)
}

func TestDemo_Text(t *testing.T) {
	out, err := execute(t, "demo", "--host", "Alice")
	require.NoError(t, err)
	assert.Contains(t, out, "Online:  Alice (you)")
	assert.Contains(t, out, "Shipped the beta")
	assert.Contains(t, out, "3 cards, 1 groups")
}

func TestTest_Scenarios(t *testing.T) {
	out, err := execute(t, "test", "../harness/testdata/scenarios", "--format", "json")
	require.NoError(t, err)

	var res TestResult
	decodeData(t, out, &res)
	assert.Equal(t, res.Total, res.Passed)
	assert.Zero(t, res.Failed)
	for _, s := range res.Scenarios {
		if s.Name == "create_and_move" {
			assert.Equal(t, "match", s.Golden)
		}
	}
}

func TestTest_UpdateAndMismatch(t *testing.T) {
	golden := t.TempDir()

	out, err := execute(t, "test", "../harness/testdata/scenarios", "--filter", "votes", "--update", "--golden-dir", golden)
	require.NoError(t, err)
	assert.Contains(t, out, "golden: updated")
	assert.FileExists(t, filepath.Join(golden, "votes.golden"))

	_, err = execute(t, "test", "../harness/testdata/scenarios", "--filter", "votes", "--golden-dir", golden)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(golden, "votes.golden"), []byte("{}\n"), 0o644))
	out, err = execute(t, "test", "../harness/testdata/scenarios", "--filter", "votes", "--golden-dir", golden)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "golden: mismatch")
}

func TestTest_MissingDir(t *testing.T) {
	_, err := execute(t, "test", filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTest_NoScenarios(t *testing.T) {
	out, err := execute(t, "test", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "No scenarios found.\n", out)
}
