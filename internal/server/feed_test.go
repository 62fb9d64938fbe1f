package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pefman/cardstats/internal/dataset"
	"github.com/pefman/cardstats/internal/logging"
)

type wireMessage struct {
	Type   string          `json:"type"`
	Record *dataset.Record `json:"record"`
	At     time.Time       `json:"at"`
}

func newFeedServer(t *testing.T) (*httptest.Server, *Feed) {
	t.Helper()
	feed := NewFeed(logging.Discard())
	store := newTestStore(t, dataset.WithObserver(feed.Publish))
	ts := httptest.NewServer(New(store, WithLogger(logging.Discard()), WithFeed(feed)))
	t.Cleanup(func() {
		feed.Close()
		ts.Close()
	})
	return ts, feed
}

func dialFeed(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/unidades/eventos"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
	t.Cleanup(func() { _ = conn.Close() })

	var hello wireMessage
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	require.NoError(t, conn.ReadJSON(&hello))
	require.Equal(t, feedHelloType, hello.Type)
	return conn
}

func TestFeedStreamsMutations(t *testing.T) {
	ts, feed := newFeedServer(t)
	conn := dialFeed(t, ts)
	assert.Equal(t, 1, feed.Len())

	resp, err := http.Post(ts.URL+"/api/unidades", "application/json", strings.NewReader(`{"Card":"Poste"}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/api/unidades/3", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	for _, want := range []string{"insert", "delete"} {
		var msg wireMessage
		require.NoError(t, conn.ReadJSON(&msg))
		assert.Equal(t, want, msg.Type)
		require.NotNil(t, msg.Record)
		assert.Equal(t, 3, msg.Record.ID)
		assert.Equal(t, "Poste", msg.Record.Get("Card").Text())
		assert.False(t, msg.At.IsZero())
	}
}

func TestFeedCloseDisconnects(t *testing.T) {
	ts, feed := newFeedServer(t)
	conn := dialFeed(t, ts)

	feed.Close()
	assert.Zero(t, feed.Len())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
}

func TestFeedRejectsPlainHTTP(t *testing.T) {
	ts, _ := newFeedServer(t)
	resp, err := http.Get(ts.URL + "/api/unidades/eventos")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestFeedPublishWithoutSubscribers(t *testing.T) {
	feed := NewFeed(logging.Discard())
	assert.NotPanics(t, func() {
		feed.Publish(dataset.Event{Op: dataset.OpInsert, At: time.Now()})
	})
}
