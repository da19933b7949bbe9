package extract

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
)

// Wire message types exchanged with the helper process. Outbound requests
// and inbound responses share one newline-delimited JSON envelope.
const (
	msgReady    = "ready"
	msgRequest  = "request"
	msgResponse = "response"
)

type envelope struct {
	Type      string `json:"type"`
	RequestID string `json:"request_id,omitempty"`
	FilePath  string `json:"file_path,omitempty"`
	Text      string `json:"text,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Listener accepts a single helper-process connection and shuttles
// newline-delimited JSON messages between it and the bridge: it forwards the
// helper's readiness signal and responses in, and writes extraction
// requests out.
type Listener struct {
	addr string

	mu   sync.Mutex
	ln   net.Listener
	conn net.Conn
	enc  *json.Encoder

	OnReady    func(bool)
	OnResponse func(Response)
}

func NewListener(addr string) *Listener {
	return &Listener{addr: addr}
}

// Start begins accepting helper connections in the background.
func (l *Listener) Start() error {
	ln, err := net.Listen("tcp", l.addr)
	if err != nil {
		return fmt.Errorf("extraction listener failed: %w", err)
	}

	l.mu.Lock()
	l.ln = ln
	l.mu.Unlock()

	go l.acceptLoop(ln)
	return nil
}

func (l *Listener) acceptLoop(ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			return
		}

		l.mu.Lock()
		if l.conn != nil {
			// One helper at a time; a reconnect replaces the old session.
			l.conn.Close()
		}
		l.conn = conn
		l.enc = json.NewEncoder(conn)
		l.mu.Unlock()

		l.readLoop(conn)
	}
}

func (l *Listener) readLoop(conn net.Conn) {
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	for scanner.Scan() {
		var msg envelope
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
			continue
		}

		switch msg.Type {
		case msgReady:
			if l.OnReady != nil {
				l.OnReady(true)
			}
		case msgResponse:
			if l.OnResponse != nil {
				l.OnResponse(Response{
					RequestID: msg.RequestID,
					Text:      msg.Text,
					Error:     msg.Error,
				})
			}
		}
	}

	l.mu.Lock()
	if l.conn == conn {
		l.conn = nil
		l.enc = nil
	}
	l.mu.Unlock()

	if l.OnReady != nil {
		l.OnReady(false)
	}
}

// Send writes one extraction request to the connected helper.
func (l *Listener) Send(req Request) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.enc == nil {
		return errors.New("no extractor connection")
	}
	return l.enc.Encode(envelope{
		Type:      msgRequest,
		RequestID: req.RequestID,
		FilePath:  req.FilePath,
	})
}

func (l *Listener) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.conn != nil {
		l.conn.Close()
		l.conn = nil
		l.enc = nil
	}
	if l.ln != nil {
		return l.ln.Close()
	}
	return nil
}

// Addr reports the bound listen address, useful when the configured address
// uses port 0.
func (l *Listener) Addr() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.ln == nil {
		return l.addr
	}
	return l.ln.Addr().String()
}
