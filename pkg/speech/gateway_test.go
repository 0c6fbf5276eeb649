package speech

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-museum/internal/log"
)

var upgrader = websocket.Upgrader{}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestGatewayRoundTrip(t *testing.T) {
	received := make(chan Message, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		var hello Message
		if err := conn.ReadJSON(&hello); err != nil {
			return
		}
		received <- hello

		_ = conn.WriteJSON(Message{Type: TypeTranscript, Text: "próxi", Final: false})
		_ = conn.WriteJSON(Message{Type: TypeTranscript, Text: "Próxima paragem", Final: true})

		var speak Message
		if err := conn.ReadJSON(&speak); err != nil {
			return
		}
		received <- speak
		// Keep the connection open until the client goes away.
		_, _, _ = conn.ReadMessage()
	}))
	defer srv.Close()

	g := New(WithURL(wsURL(srv)), WithLogger(log.Discard()))
	transcripts := make(chan string, 4)
	g.OnTranscript(func(text string) {
		transcripts <- text
		g.Speak("Certo.")
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- g.Run(ctx) }()

	select {
	case hello := <-received:
		assert.Equal(t, TypeHello, hello.Type)
		assert.Equal(t, "pt-PT", hello.Lang)
	case <-time.After(2 * time.Second):
		t.Fatal("no hello")
	}

	select {
	case text := <-transcripts:
		assert.Equal(t, "Próxima paragem", text)
	case <-time.After(2 * time.Second):
		t.Fatal("no transcript")
	}

	select {
	case speak := <-received:
		assert.Equal(t, TypeSpeak, speak.Type)
		assert.Equal(t, "Certo.", speak.Text)
	case <-time.After(2 * time.Second):
		t.Fatal("no speak frame")
	}
	assert.True(t, g.Connected())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}
	assert.False(t, g.Connected())
	assert.Len(t, transcripts, 0, "interim transcripts must not be forwarded")
}

func TestGatewayOffline(t *testing.T) {
	g := New(WithLogger(log.Discard()))
	assert.True(t, errors.Is(g.Send(Message{Type: TypeSpeak}), ErrNotConnected))
	g.Speak("ninguém ouve")
	g.Silence()
	require.Error(t, g.Run(context.Background()))
}

func TestGatewayReconnects(t *testing.T) {
	var conns atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conns.Add(1)
		conn.Close()
	}))
	defer srv.Close()

	g := New(WithURL(wsURL(srv)), WithReconnectDelay(10*time.Millisecond, 20*time.Millisecond), WithLogger(log.Discard()))
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	go g.Run(ctx)

	require.Eventually(t, func() bool { return conns.Load() >= 3 }, 2*time.Second, 10*time.Millisecond)
}
