package extract

import (
	"bufio"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startHelper connects a fake helper process to the listener and answers
// every request with answer(filePath).
func startHelper(t *testing.T, addr string, answer func(string) (string, string)) {
	t.Helper()

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	enc := json.NewEncoder(conn)
	require.NoError(t, enc.Encode(envelope{Type: msgReady}))

	go func() {
		scanner := bufio.NewScanner(conn)
		for scanner.Scan() {
			var msg envelope
			if json.Unmarshal(scanner.Bytes(), &msg) != nil || msg.Type != msgRequest {
				continue
			}
			text, errMsg := answer(msg.FilePath)
			enc.Encode(envelope{
				Type:      msgResponse,
				RequestID: msg.RequestID,
				Text:      text,
				Error:     errMsg,
			})
		}
	}()
}

func waitReady(t *testing.T, b *Bridge) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !b.Ready() {
		require.True(t, time.Now().Before(deadline), "helper never signaled readiness")
		time.Sleep(5 * time.Millisecond)
	}
}

func TestListenerRoundTrip(t *testing.T) {
	l := NewListener("127.0.0.1:0")
	b := NewBridge(l, 2*time.Second)
	l.OnReady = b.SetReady
	l.OnResponse = b.HandleResponse
	require.NoError(t, l.Start())
	defer l.Close()

	startHelper(t, l.Addr(), func(path string) (string, string) {
		return "text of " + path, ""
	})
	waitReady(t, b)

	ex := b.Extract("/ws/manual.pdf")
	assert.False(t, ex.Degraded)
	assert.Equal(t, "text of /ws/manual.pdf", ex.Text)
	assert.Zero(t, b.PendingCount())
}

func TestListenerHelperError(t *testing.T) {
	l := NewListener("127.0.0.1:0")
	b := NewBridge(l, 2*time.Second)
	l.OnReady = b.SetReady
	l.OnResponse = b.HandleResponse
	require.NoError(t, l.Start())
	defer l.Close()

	startHelper(t, l.Addr(), func(path string) (string, string) {
		return "", "corrupt document"
	})
	waitReady(t, b)

	ex := b.Extract("/ws/broken.pdf")
	assert.True(t, ex.Degraded)
	assert.Contains(t, ex.Text, "corrupt document")
}

func TestListenerDisconnectClearsReadiness(t *testing.T) {
	l := NewListener("127.0.0.1:0")
	b := NewBridge(l, 100*time.Millisecond)
	l.OnReady = b.SetReady
	l.OnResponse = b.HandleResponse
	require.NoError(t, l.Start())
	defer l.Close()

	conn, err := net.Dial("tcp", l.Addr())
	require.NoError(t, err)
	require.NoError(t, json.NewEncoder(conn).Encode(envelope{Type: msgReady}))
	waitReady(t, b)

	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for b.Ready() {
		require.True(t, time.Now().Before(deadline), "readiness not cleared on disconnect")
		time.Sleep(5 * time.Millisecond)
	}

	ex := b.Extract("/ws/manual.pdf")
	assert.True(t, ex.Degraded)
	assert.Contains(t, ex.Text, "not ready")
}

func TestSendWithoutConnection(t *testing.T) {
	l := NewListener("127.0.0.1:0")
	require.NoError(t, l.Start())
	defer l.Close()

	err := l.Send(Request{RequestID: "x", FilePath: "/ws/a.pdf"})
	assert.Error(t, err)
}
