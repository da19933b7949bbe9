package extract

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTransport records sent requests and can answer them.
type fakeTransport struct {
	mu      sync.Mutex
	sent    []Request
	sendErr error
	respond func(Request) *Response
	bridge  *Bridge
}

func (t *fakeTransport) Send(req Request) error {
	t.mu.Lock()
	t.sent = append(t.sent, req)
	respond := t.respond
	t.mu.Unlock()

	if t.sendErr != nil {
		return t.sendErr
	}
	if respond != nil {
		if resp := respond(req); resp != nil {
			go t.bridge.HandleResponse(*resp)
		}
	}
	return nil
}

func (t *fakeTransport) sentCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sent)
}

func TestExtractNotReadyShortCircuits(t *testing.T) {
	tr := &fakeTransport{}
	b := NewBridge(tr, time.Second)
	tr.bridge = b

	ex := b.Extract("/docs/manual.pdf")

	assert.True(t, ex.Degraded)
	assert.Contains(t, ex.Text, "manual.pdf")
	assert.Contains(t, ex.Text, "not ready")
	assert.Zero(t, tr.sentCount(), "no request may be sent before readiness")
	assert.Zero(t, b.PendingCount())
}

func TestExtractSuccess(t *testing.T) {
	tr := &fakeTransport{}
	b := NewBridge(tr, time.Second)
	tr.bridge = b
	tr.respond = func(req Request) *Response {
		return &Response{RequestID: req.RequestID, Text: "extracted body"}
	}
	b.SetReady(true)

	ex := b.Extract("/docs/manual.pdf")

	assert.False(t, ex.Degraded)
	assert.Equal(t, "extracted body", ex.Text)
	assert.Equal(t, 1, tr.sentCount())
	assert.Zero(t, b.PendingCount())
}

func TestExtractHelperError(t *testing.T) {
	tr := &fakeTransport{}
	b := NewBridge(tr, time.Second)
	tr.bridge = b
	tr.respond = func(req Request) *Response {
		return &Response{RequestID: req.RequestID, Error: "password protected"}
	}
	b.SetReady(true)

	ex := b.Extract("/docs/secret.pdf")

	assert.True(t, ex.Degraded)
	assert.Contains(t, ex.Text, "password protected")
	assert.Zero(t, b.PendingCount())
}

func TestExtractTimeout(t *testing.T) {
	tr := &fakeTransport{} // never responds
	b := NewBridge(tr, 20*time.Millisecond)
	tr.bridge = b
	b.SetReady(true)

	start := time.Now()
	ex := b.Extract("/docs/slow.pdf")

	assert.True(t, ex.Degraded)
	assert.Contains(t, ex.Text, "timed out")
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	assert.Zero(t, b.PendingCount(), "timed-out entry must be removed")
}

func TestExtractSendFailure(t *testing.T) {
	tr := &fakeTransport{sendErr: errors.New("no extractor connection")}
	b := NewBridge(tr, time.Second)
	tr.bridge = b
	b.SetReady(true)

	ex := b.Extract("/docs/manual.pdf")

	assert.True(t, ex.Degraded)
	assert.Contains(t, ex.Text, "extraction failed")
	assert.Zero(t, b.PendingCount())
}

func TestHandleResponseUnknownIDIgnored(t *testing.T) {
	b := NewBridge(&fakeTransport{}, time.Second)

	// Must not panic or leak anything.
	b.HandleResponse(Response{RequestID: "nobody-asked", Text: "stray"})
	assert.Zero(t, b.PendingCount())
}

func TestExtractFreshRequestIDs(t *testing.T) {
	tr := &fakeTransport{}
	b := NewBridge(tr, time.Second)
	tr.bridge = b
	tr.respond = func(req Request) *Response {
		return &Response{RequestID: req.RequestID, Text: "ok"}
	}
	b.SetReady(true)

	b.Extract("/docs/a.pdf")
	b.Extract("/docs/a.pdf")

	require.Equal(t, 2, tr.sentCount())
	assert.NotEqual(t, tr.sent[0].RequestID, tr.sent[1].RequestID)
}

func TestLocalExtractPlainText(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("plain file contents"), 0644))

	ex := NewLocal().Extract(path)

	assert.False(t, ex.Degraded)
	assert.Equal(t, "plain file contents", ex.Text)
}

func TestLocalExtractHTMLStripsMarkup(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "page.html")
	html := `<html><head><style>body{color:red}</style></head>
<body><h1>Warranty Terms</h1><script>alert(1)</script>
<p>Coverage lasts   twelve months.</p></body></html>`
	require.NoError(t, os.WriteFile(path, []byte(html), 0644))

	ex := NewLocal().Extract(path)

	require.False(t, ex.Degraded)
	assert.Contains(t, ex.Text, "Warranty Terms")
	assert.Contains(t, ex.Text, "Coverage lasts twelve months.")
	assert.NotContains(t, ex.Text, "alert(1)")
	assert.NotContains(t, ex.Text, "color:red")
}

func TestLocalExtractMissingFileDegrades(t *testing.T) {
	ex := NewLocal().Extract("/does/not/exist.txt")

	assert.True(t, ex.Degraded)
	assert.Contains(t, ex.Text, "exist.txt")
}
