package cli

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"queryquest/internal/auth"
	"queryquest/internal/config"
	"queryquest/internal/mission"
)

const testAuthKey = "0123456789abcdef0123456789abcdef"

// run executes the command tree in an empty working directory so a stray
// queryquest.yaml cannot leak into the test.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Chdir(t.TempDir())

	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(""))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestMissionsList(t *testing.T) {
	out, err := run(t, "missions", "list")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Greater(t, len(lines), 1)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.True(t, strings.HasPrefix(lines[1], "level1-mission1 "))
	assert.Contains(t, out, "level2-mission1")
}

func TestMissionsValidate(t *testing.T) {
	out, err := run(t, "missions", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "ok: 15 missions")
}

func TestMissionsValidateReportsProblems(t *testing.T) {
	dir := t.TempDir()
	raw := `{"id":"level1-mission1","title":"","level":1,"xpReward":50,"validationRules":{"requiredKeywords":["SELECT"]}}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "level1-mission1.json"), []byte(raw), 0o600))

	out, err := run(t, "missions", "validate", "--missions-dir", dir)
	require.Error(t, err)
	assert.Contains(t, out, "invalid: mission level1-mission1: title is required")
}

func TestCheck(t *testing.T) {
	out, err := run(t, "check", "SELECT", "*", "FROM", "citizens")
	require.NoError(t, err)
	assert.Equal(t, "safe\n", out)

	out, err = run(t, "check", "DROP TABLE citizens")
	assert.ErrorIs(t, err, errRejected)
	assert.Equal(t, "unsafe: DROP operations are only available in advanced missions.\n", out)

	out, err = run(t, "check", "--mission", "level2-mission1", "DELETE FROM citizens WHERE id = 1")
	require.NoError(t, err)
	assert.Equal(t, "safe\n", out)
}

func TestCheckUnknownMission(t *testing.T) {
	_, err := run(t, "check", "--mission", "level9-mission9", "SELECT 1")
	assert.ErrorIs(t, err, mission.ErrNotFound)
}

func TestUsersTokenRequiresKey(t *testing.T) {
	_, err := run(t, "users", "token", "user-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auth.key")
}

func TestUsersToken(t *testing.T) {
	t.Setenv(config.EnvPrefix+"AUTH__KEY", testAuthKey)

	out, err := run(t, "users", "token", "user-1")
	require.NoError(t, err)

	tokens, err := auth.NewTokens([]byte(testAuthKey), nil, 0)
	require.NoError(t, err)
	userID, err := tokens.Authenticate(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestUsersAddNeedsPostgres(t *testing.T) {
	_, err := run(t, "users", "add", "ava", "--store", "memory")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres")
}

func TestServeRejectsInvalidConfig(t *testing.T) {
	_, err := run(t, "serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.url")
}

func TestRunServerStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- runServer(ctx, config.ServerConfig{
			Addr:            "127.0.0.1:0",
			ShutdownTimeout: time.Second,
		}, http.NotFoundHandler())
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
