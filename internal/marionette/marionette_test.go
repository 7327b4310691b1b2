package marionette

import (
	"bufio"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/skarab42/pantin-go/internal/codec"
)

// fakeServer starts a TCP listener, sends the handshake frame on accept, and
// runs handle for the lifetime of the connection. It returns the listener
// address.
func fakeServer(t *testing.T, handle func(conn net.Conn, r *bufio.Reader)) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		hs, _ := json.Marshal(handshakeFrame{MarionetteProtocol: 3, ApplicationType: "gecko"})
		_ = codec.Encode(conn, hs)

		handle(conn, bufio.NewReader(conn))
	}()

	return ln.Addr().String()
}

func writeSuccess(conn net.Conn, id uint32, result any) {
	body, _ := json.Marshal(result)
	frame, _ := json.Marshal([]any{1, id, nil, json.RawMessage(body)})
	_ = codec.Encode(conn, frame)
}

func TestConnectAndNewSession(t *testing.T) {
	addr := fakeServer(t, func(conn net.Conn, r *bufio.Reader) {
		frame, err := codec.Decode(r)
		if err != nil {
			return
		}
		var req [4]json.RawMessage
		_ = json.Unmarshal(frame, &req)
		var id uint32
		_ = json.Unmarshal(req[1], &id)
		writeSuccess(conn, id, NewSessionResult{SessionID: "abc123"})
	})

	client, err := Connect(addr)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer client.Close()

	if client.SessionID != "abc123" {
		t.Errorf("expected session id abc123, got %q", client.SessionID)
	}
}

func TestCommandIDMismatch(t *testing.T) {
	addr := fakeServer(t, func(conn net.Conn, r *bufio.Reader) {
		// NewSession: reply with correct id.
		frame, _ := codec.Decode(r)
		var req [4]json.RawMessage
		_ = json.Unmarshal(frame, &req)
		var id uint32
		_ = json.Unmarshal(req[1], &id)
		writeSuccess(conn, id, NewSessionResult{SessionID: "s"})

		// Navigate: reply with a mismatched id.
		frame, _ = codec.Decode(r)
		_ = json.Unmarshal(frame, &req)
		_ = json.Unmarshal(req[1], &id)
		writeSuccess(conn, id+1, struct{}{})
	})

	client, err := Connect(addr)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer client.Close()

	err = client.Navigate("https://example.com")
	if _, ok := err.(*CommandIdMismatchError); !ok {
		t.Fatalf("expected CommandIdMismatchError, got %v", err)
	}
}

func TestCommandFailure(t *testing.T) {
	addr := fakeServer(t, func(conn net.Conn, r *bufio.Reader) {
		frame, _ := codec.Decode(r)
		var req [4]json.RawMessage
		_ = json.Unmarshal(frame, &req)
		var id uint32
		_ = json.Unmarshal(req[1], &id)
		writeSuccess(conn, id, NewSessionResult{SessionID: "s"})

		frame, _ = codec.Decode(r)
		_ = json.Unmarshal(frame, &req)
		_ = json.Unmarshal(req[1], &id)

		failure, _ := json.Marshal(map[string]string{
			"error": "javascript error", "message": "boom", "stacktrace": "t",
		})
		resp, _ := json.Marshal([]any{1, id, json.RawMessage(failure), nil})
		_ = codec.Encode(conn, resp)
	})

	client, err := Connect(addr)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer client.Close()

	err = client.Navigate("https://example.com")
	cf, ok := err.(*CommandFailureError)
	if !ok {
		t.Fatalf("expected CommandFailureError, got %v", err)
	}
	if cf.Error() != "javascript error: boom" {
		t.Errorf("unexpected message: %q", cf.Error())
	}
}

func TestConnectTimeout(t *testing.T) {
	// Bind then immediately close, so nothing is listening on this port.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	start := time.Now()
	_, err = Connect(addr)
	elapsed := time.Since(start)

	if err == nil {
		t.Fatal("expected connection error")
	}
	if elapsed > 3*time.Second {
		t.Errorf("connect retry ran too long: %v", elapsed)
	}
}

func TestHandshakeMismatchIsFatal(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		bad, _ := json.Marshal(handshakeFrame{MarionetteProtocol: 2, ApplicationType: "gecko"})
		_ = codec.Encode(conn, bad)
	}()

	_, err = Connect(ln.Addr().String())
	if _, ok := err.(*HandshakeError); !ok {
		t.Fatalf("expected HandshakeError, got %v", err)
	}
}
