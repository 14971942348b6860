package commands

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loaneye/internal/rule"
)

func setupViper(t *testing.T, url, token string) string {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)

	cfg := filepath.Join(t.TempDir(), "cli.yaml")
	viper.SetConfigFile(cfg)
	viper.Set(KeyAPIURL, url)
	viper.Set(KeyToken, token)
	return cfg
}

func run(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestNewClient_RequiresLogin(t *testing.T) {
	setupViper(t, "", "")

	_, err := run(t, NewRuleCommand(), "list")
	assert.ErrorContains(t, err, "not logged in")
}

func TestLogin_SavesToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/auth/login", r.URL.Path)
		_, _ = w.Write([]byte(`{"token":"jwt-token"}`))
	}))
	defer srv.Close()
	cfg := setupViper(t, "", "")

	out, err := run(t, NewLoginCommand(), "-u", "ana", "-p", "pw", "--url", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "Login successful")

	data, err := os.ReadFile(cfg)
	require.NoError(t, err)
	assert.Contains(t, string(data), "jwt-token")
	assert.Contains(t, string(data), srv.URL)
}

func TestSessionAdd_SendsPiece(t *testing.T) {
	var got rule.Piece
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"block":2,"text":"A AND Max Dpd FROM Collections TABLE > 90"}`))
	}))
	defer srv.Close()
	setupViper(t, srv.URL, "tok")

	out, err := run(t, NewSessionCommand(), "add", "sid", "-b", "2",
		"--join", "AND", "--var", "Max Dpd FROM Collections TABLE", "--op", ">", "--value", "90")
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/sessions/sid/blocks/2/pieces", path)
	assert.Equal(t, rule.Piece{Variable: "Max Dpd FROM Collections TABLE", Operator: ">", Value: "90", Join: "AND"}, got)
	assert.Contains(t, out, "Block 2: A AND Max Dpd FROM Collections TABLE > 90")
}

func TestSessionAdd_RejectsUnknownOperator(t *testing.T) {
	setupViper(t, "http://127.0.0.1:1", "tok")

	_, err := run(t, NewSessionCommand(), "add", "sid", "--var", "x", "--op", "~=")
	assert.Error(t, err)
}

func TestRuleList_Prints(t *testing.T) {
	var query string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		_, _ = w.Write([]byte(`[{"ID":4,"signal_code":412,"rule":"x > 1","rule_described":"x > 1","actionable_workflow":"High","alert_severity":"Low","is_enabled":true}]`))
	}))
	defer srv.Close()
	setupViper(t, srv.URL, "tok")

	out, err := run(t, NewRuleCommand(), "list", "--enabled", "true", "--signal", "412")
	require.NoError(t, err)
	assert.Equal(t, "enabled=true&signal=412", query)
	assert.Contains(t, out, "x > 1")
	assert.Contains(t, out, "412")
}

func TestRuleDelete_InvalidID(t *testing.T) {
	setupViper(t, "http://127.0.0.1:1", "tok")

	_, err := run(t, NewRuleCommand(), "delete", "abc")
	assert.ErrorContains(t, err, "invalid rule ID")
}
