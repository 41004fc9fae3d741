// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package rawport

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// wsHandle receives MIDI bytes from a WebSocket bridge as binary frames.
// A goroutine owns the connection's read side; Poll waits on its channel.
type wsHandle struct {
	name string
	conn *websocket.Conn

	frames chan []byte
	done   chan struct{} // closed when the reader goroutine exits
	quit   chan struct{} // closed by Close

	pending []byte
	readErr error
	hup     bool

	mu     sync.Mutex
	closed bool
}

// OpenWebSocket connects to a WebSocket MIDI bridge with optional HTTP Basic auth
func OpenWebSocket(wsURL, username, password string, skipSSLVerify bool) (Handle, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %v", err)
	}

	switch u.Scheme {
	case "ws", "wss":
	default:
		return nil, fmt.Errorf("unsupported URL scheme: %s (use ws:// or wss://)", u.Scheme)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}
	if u.Scheme == "wss" {
		dialer.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: skipSSLVerify,
		}
	}

	headers := http.Header{}
	if username != "" && password != "" {
		credentials := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
		headers.Set("Authorization", "Basic "+credentials)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	conn, resp, err := dialer.DialContext(ctx, wsURL, headers)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("WebSocket connection failed (HTTP %d): %v", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("WebSocket connection failed: %v", err)
	}

	return newWSHandle(wsURL, conn), nil
}

func newWSHandle(name string, conn *websocket.Conn) *wsHandle {
	h := &wsHandle{
		name:   name,
		conn:   conn,
		frames: make(chan []byte, 16),
		done:   make(chan struct{}),
		quit:   make(chan struct{}),
	}
	go h.readLoop()
	return h
}

// readLoop forwards binary frames until the connection fails.
// Read deadlines are not used: gorilla treats a timed out read as fatal.
func (h *wsHandle) readLoop() {
	defer close(h.done)
	for {
		messageType, data, err := h.conn.ReadMessage()
		if err != nil {
			h.readErr = err
			return
		}
		if messageType != websocket.BinaryMessage || len(data) == 0 {
			continue
		}
		select {
		case h.frames <- data:
		case <-h.quit:
			return
		}
	}
}

func (h *wsHandle) Name() string {
	return h.name
}

func (h *wsHandle) Poll(timeout time.Duration) (bool, error) {
	if h.isClosed() {
		return false, ErrClosed
	}
	if len(h.pending) > 0 || h.hup {
		return true, nil
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case data := <-h.frames:
		h.pending = data
		return true, nil
	case <-h.done:
		// Drain frames queued before the connection went away
		select {
		case data := <-h.frames:
			h.pending = data
		default:
			h.hup = true
		}
		return true, nil
	case <-timer.C:
		return false, nil
	}
}

func (h *wsHandle) Revents() (Events, error) {
	if h.isClosed() {
		return 0, ErrClosed
	}
	if len(h.pending) > 0 {
		return EventIn, nil
	}
	if !h.hup {
		return 0, nil
	}
	if h.readErr == nil || websocket.IsCloseError(h.readErr, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		return EventHup, nil
	}
	var closeErr *websocket.CloseError
	if errors.As(h.readErr, &closeErr) {
		return EventErr | EventHup, nil
	}
	// Let Read report transport failures
	return EventIn, nil
}

func (h *wsHandle) Read(p []byte) (int, error) {
	if h.isClosed() {
		return 0, ErrClosed
	}
	if len(h.pending) > 0 {
		n := copy(p, h.pending)
		h.pending = h.pending[n:]
		return n, nil
	}
	if h.hup && h.readErr != nil {
		return 0, h.readErr
	}
	return 0, ErrWouldBlock
}

func (h *wsHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	close(h.quit)
	_ = h.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return h.conn.Close()
}

func (h *wsHandle) isClosed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}
