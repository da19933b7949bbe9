package extract

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"docrag/internal/port"
)

// DefaultTimeout bounds how long one extraction round trip may take before
// the bridge degrades to placeholder content.
const DefaultTimeout = 30 * time.Second

// Request asks the helper process to extract text from one file.
type Request struct {
	RequestID string `json:"request_id"`
	FilePath  string `json:"file_path"`
}

// Response carries the helper's correlated answer for one request.
type Response struct {
	RequestID string `json:"request_id"`
	Text      string `json:"text"`
	Error     string `json:"error,omitempty"`
}

// Transport delivers requests to the helper process.
type Transport interface {
	Send(req Request) error
}

// Bridge correlates one-shot extraction requests with their eventual
// responses. Documents that need rendering (pdf, docx) can only be read by a
// helper process with display capabilities; the bridge sends it a tagged
// request and suspends until the matching response arrives or the timeout
// fires. Every failure mode resolves to degraded placeholder text so a bad
// file never aborts an indexing run.
type Bridge struct {
	transport Transport
	timeout   time.Duration

	mu      sync.Mutex
	ready   bool
	pending map[string]chan Response
}

func NewBridge(transport Transport, timeout time.Duration) *Bridge {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Bridge{
		transport: transport,
		timeout:   timeout,
		pending:   make(map[string]chan Response),
	}
}

// SetReady records whether the helper has signaled it can accept requests.
// Before readiness, Extract short-circuits without sending anything.
func (b *Bridge) SetReady(ready bool) {
	b.mu.Lock()
	b.ready = ready
	b.mu.Unlock()
}

func (b *Bridge) Ready() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ready
}

// PendingCount reports outstanding requests.
func (b *Bridge) PendingCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

// Extract requests text for one file from the helper process. The result is
// degraded, never an error: timeouts, transport failures and helper-reported
// errors all resolve to placeholder text identifying the file.
func (b *Bridge) Extract(filePath string) port.Extraction {
	name := filepath.Base(filePath)

	b.mu.Lock()
	if !b.ready {
		b.mu.Unlock()
		return degraded(
			fmt.Sprintf("[Content from %s - extractor not ready]", name),
			"extractor not ready")
	}

	id := uuid.NewString()
	ch := make(chan Response, 1)
	b.pending[id] = ch
	b.mu.Unlock()

	if err := b.transport.Send(Request{RequestID: id, FilePath: filePath}); err != nil {
		b.remove(id)
		return degraded(
			fmt.Sprintf("[Content from %s - extraction failed: %v]", name, err),
			fmt.Sprintf("send failed: %v", err))
	}

	timer := time.NewTimer(b.timeout)
	defer timer.Stop()

	select {
	case resp := <-ch:
		return b.resolve(name, resp)
	case <-timer.C:
		b.remove(id)
		// A response may have landed between the timeout firing and the
		// removal; prefer it over the placeholder.
		select {
		case resp := <-ch:
			return b.resolve(name, resp)
		default:
		}
		return degraded(
			fmt.Sprintf("[Content from %s - extraction timed out]", name),
			"extraction timed out")
	}
}

// HandleResponse delivers a helper response to its waiting request.
// Responses with an unknown id are ignored.
func (b *Bridge) HandleResponse(resp Response) {
	b.mu.Lock()
	ch, ok := b.pending[resp.RequestID]
	if ok {
		delete(b.pending, resp.RequestID)
	}
	b.mu.Unlock()

	if ok {
		ch <- resp
	}
}

func (b *Bridge) resolve(name string, resp Response) port.Extraction {
	if resp.Error != "" {
		return degraded(
			fmt.Sprintf("[Content from %s - extraction error: %s]", name, resp.Error),
			resp.Error)
	}
	return port.Extraction{Text: resp.Text}
}

func (b *Bridge) remove(id string) {
	b.mu.Lock()
	delete(b.pending, id)
	b.mu.Unlock()
}

func degraded(text, note string) port.Extraction {
	return port.Extraction{Text: text, Degraded: true, Note: note}
}
