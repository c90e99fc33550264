package infra

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// mockHandler implements StreamHandler for testing
type mockHandler struct {
	url            string
	onConnectCalls int32
	onMessageCalls int32
}

func (m *mockHandler) ID() string  { return "MOCK" }
func (m *mockHandler) URL() string { return m.url }
func (m *mockHandler) OnConnect(ctx context.Context, conn *websocket.Conn) error {
	atomic.AddInt32(&m.onConnectCalls, 1)
	return nil
}
func (m *mockHandler) OnMessage(ctx context.Context, msg []byte) {
	atomic.AddInt32(&m.onMessageCalls, 1)
}

// createMockWSServer creates a test WebSocket server
func createMockWSServer(t *testing.T, handler func(*websocket.Conn)) *httptest.Server {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Logf("upgrade error: %v", err)
			return
		}
		defer conn.Close()
		handler(conn)
	}))
}

func httpToWS(url string) string {
	return strings.Replace(url, "http://", "ws://", 1)
}

func TestWSWorker_Connect(t *testing.T) {
	server := createMockWSServer(t, func(conn *websocket.Conn) {
		conn.WriteMessage(websocket.TextMessage, []byte(`{"bitcoin":"64000"}`))
		time.Sleep(100 * time.Millisecond)
	})
	defer server.Close()

	handler := &mockHandler{url: httpToWS(server.URL)}
	worker := NewWSWorker(handler)
	worker.ReadTimeout = 500 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	worker.Start(ctx)
	time.Sleep(200 * time.Millisecond)
	worker.Stop()

	if atomic.LoadInt32(&handler.onConnectCalls) == 0 {
		t.Error("OnConnect was not called")
	}
	if atomic.LoadInt32(&handler.onMessageCalls) == 0 {
		t.Error("OnMessage was not called")
	}
}

func TestWSWorker_ReconnectsAfterClose(t *testing.T) {
	var conns int32
	server := createMockWSServer(t, func(conn *websocket.Conn) {
		atomic.AddInt32(&conns, 1)
		// drop the connection right away to force a reconnect
	})
	defer server.Close()

	handler := &mockHandler{url: httpToWS(server.URL)}
	worker := NewWSWorker(handler)
	worker.ReadTimeout = 100 * time.Millisecond
	worker.ReconnectDelay = 50 * time.Millisecond

	worker.Start(context.Background())
	time.Sleep(600 * time.Millisecond)
	worker.Stop()

	if atomic.LoadInt32(&conns) < 2 {
		t.Errorf("expected at least 2 connections, got %d", conns)
	}
}

func TestWSWorker_GracefulShutdown(t *testing.T) {
	serverClosed := make(chan struct{})
	server := createMockWSServer(t, func(conn *websocket.Conn) {
		<-serverClosed
	})
	defer server.Close()
	defer close(serverClosed)

	handler := &mockHandler{url: httpToWS(server.URL)}
	worker := NewWSWorker(handler)

	worker.Start(context.Background())
	time.Sleep(100 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		worker.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Error("Stop did not return within timeout")
	}
}

func TestWSWorker_PingLoopExitsWhenConnReplaced(t *testing.T) {
	server := createMockWSServer(t, func(conn *websocket.Conn) {
		time.Sleep(time.Second)
	})
	defer server.Close()

	dialer := websocket.Dialer{}
	oldConn, _, err := dialer.Dial(httpToWS(server.URL), nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer oldConn.Close()
	newConn, _, err := dialer.Dial(httpToWS(server.URL), nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer newConn.Close()

	handler := &mockHandler{url: httpToWS(server.URL)}
	worker := NewWSWorker(handler)
	worker.PingInterval = 10 * time.Millisecond
	worker.conn = newConn

	// a loop started for the old connection must notice the swap and exit
	done := make(chan struct{})
	go func() {
		worker.pingLoop(context.Background(), oldConn)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Error("stale ping loop did not exit after its connection was replaced")
	}
}

func TestWSWorker_Write(t *testing.T) {
	receivedMsg := make(chan []byte, 1)

	server := createMockWSServer(t, func(conn *websocket.Conn) {
		_, msg, err := conn.ReadMessage()
		if err == nil {
			receivedMsg <- msg
		}
		time.Sleep(100 * time.Millisecond)
	})
	defer server.Close()

	handler := &mockHandler{url: httpToWS(server.URL)}
	worker := NewWSWorker(handler)

	worker.Start(context.Background())
	time.Sleep(100 * time.Millisecond)

	testMsg := []byte(`{"action":"SubAdd"}`)
	if err := worker.Write(websocket.TextMessage, testMsg); err != nil {
		t.Errorf("Write failed: %v", err)
	}

	select {
	case msg := <-receivedMsg:
		if string(msg) != string(testMsg) {
			t.Errorf("expected %s, got %s", testMsg, msg)
		}
	case <-time.After(time.Second):
		t.Error("server did not receive message")
	}

	worker.Stop()
}
