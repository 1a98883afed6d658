package api

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"sitecloner/internal/clone"
	"sitecloner/internal/progress"
)

func dialWS(t *testing.T, srv *httptest.Server, jobID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/clone/" + jobID
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil {
		require.NoError(t, resp.Body.Close())
	}
	return conn
}

func TestSubscribeReceivesEvents(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)
	srv := httptest.NewServer(ts.server.Handler())
	defer srv.Close()

	job, err := ts.store.Create(context.Background(), "https://example.com")
	require.NoError(t, err)

	conn := dialWS(t, srv, job.ID)
	defer conn.Close() //nolint:errcheck

	// The sink registration races the dial; wait for the registry to see it.
	require.Eventually(t, func() bool {
		return ts.registry.Subscribed(job.ID)
	}, 2*time.Second, 10*time.Millisecond)

	ts.registry.Publish(job.ID, progress.Event{Status: clone.StatusScraping, Progress: 10})
	ts.registry.Publish(job.ID, progress.Event{
		Status:       clone.StatusFailed,
		Progress:     0,
		ErrorMessage: "navigation timed out",
	})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var first progress.Event
	require.NoError(t, conn.ReadJSON(&first))
	require.Equal(t, clone.StatusScraping, first.Status)
	require.Equal(t, 10, first.Progress)

	var second progress.Event
	require.NoError(t, conn.ReadJSON(&second))
	require.Equal(t, clone.StatusFailed, second.Status)
	require.Equal(t, "navigation timed out", second.ErrorMessage)
}

func TestSubscribeUnknownJobCloses(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)
	srv := httptest.NewServer(ts.server.Handler())
	defer srv.Close()

	conn := dialWS(t, srv, "missing")
	defer conn.Close() //nolint:errcheck

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	var closeErr *websocket.CloseError
	require.ErrorAs(t, err, &closeErr)
	require.Equal(t, websocket.ClosePolicyViolation, closeErr.Code)
	require.Equal(t, "unknown job", closeErr.Text)
}

func TestSubscribeReplacementClosesPrior(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)
	srv := httptest.NewServer(ts.server.Handler())
	defer srv.Close()

	job, err := ts.store.Create(context.Background(), "https://example.com")
	require.NoError(t, err)

	first := dialWS(t, srv, job.ID)
	defer first.Close() //nolint:errcheck
	require.Eventually(t, func() bool {
		return ts.registry.Subscribed(job.ID)
	}, 2*time.Second, 10*time.Millisecond)

	second := dialWS(t, srv, job.ID)
	defer second.Close() //nolint:errcheck

	// The first connection receives a close frame once it is replaced.
	require.NoError(t, first.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = first.ReadMessage()
	require.Error(t, err)
}
