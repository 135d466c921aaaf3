package web

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/itohio/gopcr/pkg/menu"
	"github.com/itohio/gopcr/pkg/pressure"
	"github.com/itohio/gopcr/pkg/rig"
	"github.com/itohio/gopcr/pkg/session"
	"github.com/itohio/gopcr/pkg/wave"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/womat/debug"
)

func TestMain(m *testing.M) {
	debug.SetDebug(io.Discard, debug.Standard)
	os.Exit(m.Run())
}

type fakeController struct {
	state   session.State
	aborted int
}

func (f *fakeController) State() session.State { return f.state }

func (f *fakeController) Abort() bool {
	if f.state != session.Running {
		return false
	}
	f.aborted++
	return true
}

func (f *fakeController) Display() [menu.Rows]string {
	return [menu.Rows]string{"Cur:  1.0 psi", "Dev:  --%", "Time: 0.0 sec", "Press to begin"}
}

func do(t *testing.T, s *Server, method, path string) (*http.Response, []byte) {
	t.Helper()
	resp, err := s.App().Test(httptest.NewRequest(method, path, nil))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func TestHandleStatus(t *testing.T) {
	state := pressure.NewTracker(pressure.State{
		Current: 11, Target: 10, Elapsed: 2.5, Kind: wave.Step, Run: true, Channel: rig.Lower,
	})
	s := New(state, &fakeController{state: session.Running})

	resp, body := do(t, s, http.MethodGet, "/status")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var got map[string]any
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, 11.0, got["current"])
	assert.Equal(t, 10.0, got["target"])
	assert.Equal(t, "10.0", got["deviation"])
	assert.Equal(t, "step", got["kind"])
	assert.Equal(t, "lower", got["channel"])
	assert.Equal(t, "running", got["session"])
	assert.Equal(t, true, got["run"])
}

func TestHandleStatus_NoController(t *testing.T) {
	s := New(pressure.NewTracker(pressure.State{Current: 2}), nil)

	resp, body := do(t, s, http.MethodGet, "/status")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"deviation":"--"`)
	assert.Contains(t, string(body), `"session":""`)

	resp, _ = do(t, s, http.MethodGet, "/display")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestHandleDisplay(t *testing.T) {
	s := New(pressure.NewTracker(pressure.State{}), &fakeController{})

	resp, body := do(t, s, http.MethodGet, "/display")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var got struct {
		Rows []string `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, []string{"Cur:  1.0 psi", "Dev:  --%", "Time: 0.0 sec", "Press to begin"}, got.Rows)
}

func TestHandleAbort(t *testing.T) {
	ctrl := &fakeController{state: session.Idle}
	s := New(pressure.NewTracker(pressure.State{}), ctrl)

	resp, _ := do(t, s, http.MethodPost, "/abort")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	ctrl.state = session.Running
	resp, body := do(t, s, http.MethodPost, "/abort")
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.JSONEq(t, `{"session":"running"}`, string(body))
	assert.Equal(t, 1, ctrl.aborted)
}

func TestHandleVersion(t *testing.T) {
	s := New(pressure.NewTracker(pressure.State{}), nil)

	resp, body := do(t, s, http.MethodGet, "/version")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var got map[string]string
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, VERSION, got["version"])
	assert.Equal(t, "gopcr V0.1.0", got["about"])
}

func TestHandleHealth(t *testing.T) {
	s := New(pressure.NewTracker(pressure.State{}), nil)

	resp, body := do(t, s, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var got map[string]any
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, VERSION, got["Version"])
	assert.NotZero(t, got["NumGoroutines"])
}
