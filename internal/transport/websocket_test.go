package transport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// echoServer echoes text frames and closes after a frame containing "bye"
func echoServer(t *testing.T) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			msgType, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if strings.Contains(string(data), "bye") {
				return
			}
			_ = conn.WriteMessage(websocket.BinaryMessage, []byte("skipped"))
			if err := conn.WriteMessage(msgType, data); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestWebsocketTransport_SendReceive(t *testing.T) {
	srv := echoServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tr, err := Dial(ctx, wsURL(srv), zap.NewNop())
	require.NoError(t, err)
	defer tr.Close()

	frame := []byte(`{"op":"login","args":[1000,"23"]}`)
	require.NoError(t, tr.Send(ctx, frame))

	got, err := tr.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, frame, got)
}

func TestWebsocketTransport_ReceiveHonorsContext(t *testing.T) {
	srv := echoServer(t)
	tr, err := Dial(context.Background(), wsURL(srv), zap.NewNop())
	require.NoError(t, err)
	defer tr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = tr.Receive(ctx)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestWebsocketTransport_PeerClose(t *testing.T) {
	srv := echoServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tr, err := Dial(ctx, wsURL(srv), zap.NewNop())
	require.NoError(t, err)
	defer tr.Close()

	require.NoError(t, tr.Send(ctx, []byte(`"bye"`)))
	_, err = tr.Receive(ctx)
	require.Error(t, err)

	_, err = tr.Receive(ctx)
	assert.Error(t, err)
}

func TestWebsocketTransport_SendAfterClose(t *testing.T) {
	srv := echoServer(t)
	tr, err := Dial(context.Background(), wsURL(srv), zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, tr.Close())
	assert.True(t, errors.Is(tr.Send(context.Background(), []byte(`{}`)), ErrClosed))
	assert.NoError(t, tr.Close())
}

func TestDial_RejectsBadURL(t *testing.T) {
	for _, raw := range []string{"", "http://example.com", "not a url"} {
		_, err := Dial(context.Background(), raw, zap.NewNop())
		assert.Error(t, err, raw)
	}
}
