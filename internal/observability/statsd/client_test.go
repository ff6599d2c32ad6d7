package statsd

import (
	"net"
	"strings"
	"testing"
	"time"
)

func TestMetricName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		prefix, name, want string
	}{
		{"kalyani", "session.login", "kalyani.session.login"},
		{"", " session/login ", "session_login"},
		{"kalyani", "a..b", "kalyani.a.b"},
		{"kalyani", "..", ""},
		{"kalyani", "", ""},
	}
	for _, tt := range tests {
		if got := metricName(tt.prefix, tt.name); got != tt.want {
			t.Fatalf("metricName(%q, %q) = %q, want %q", tt.prefix, tt.name, got, tt.want)
		}
	}
}

func TestLine(t *testing.T) {
	t.Parallel()

	c := &Client{prefix: "kalyani", global: cleanTags(map[string]string{" env ": " prod ", "service": "gateway"})}

	got := c.line("session.login", "1", "c", map[string]string{"result": "success", "env": "stage", "": "x"})
	want := "kalyani.session.login:1|c|#env:stage,result:success,service:gateway"
	if got != want {
		t.Fatalf("line mismatch\n got: %q\nwant: %q", got, want)
	}

	bare := &Client{}
	if got := bare.line("sessions.active", "3", "g", nil); got != "sessions.active:3|g" {
		t.Fatalf("line without tags = %q", got)
	}
}

func TestClientSendsOverUDP(t *testing.T) {
	t.Parallel()

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer pc.Close()

	c, err := NewClient(Config{Enabled: true, Address: pc.LocalAddr().String(), Prefix: "kalyani."})
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}
	defer c.Close()
	if !c.Enabled() {
		t.Fatal("client should be enabled")
	}

	c.Timing("session.restore.duration", 1500*time.Microsecond, map[string]string{"outcome": "verified"})

	buf := make([]byte, 512)
	if err := pc.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("deadline: %v", err)
	}
	n, _, err := pc.ReadFrom(buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got, want := string(buf[:n]), "kalyani.session.restore.duration:1.5|ms|#outcome:verified"; got != want {
		t.Fatalf("packet = %q, want %q", got, want)
	}
}

func TestClientDisabled(t *testing.T) {
	t.Parallel()

	c, err := NewClient(Config{Enabled: true, Address: "   "})
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}
	if c.Enabled() {
		t.Fatal("client without address should be disabled")
	}
	c.Count("session.login", 1, nil)

	var nilClient *Client
	nilClient.Count("x", 1, nil)
	nilClient.Gauge("x", 1, nil)
	if nilClient.Enabled() {
		t.Fatal("nil client should report disabled")
	}
	if err := nilClient.Close(); err != nil {
		t.Fatalf("nil Close error: %v", err)
	}
}

func TestClientClose(t *testing.T) {
	t.Parallel()

	clientConn, peerConn := net.Pipe()
	defer peerConn.Close()
	c := &Client{conn: clientConn}

	if err := c.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
	if c.Enabled() {
		t.Fatal("closed client should report disabled")
	}
	if err := c.Close(); err != nil {
		t.Fatalf("second Close error: %v", err)
	}
}

func TestNewClientDialError(t *testing.T) {
	t.Parallel()

	_, err := NewClient(Config{Enabled: true, Address: "bad address"})
	if err == nil || !strings.Contains(err.Error(), "statsd dial") {
		t.Fatalf("expected dial error, got %v", err)
	}
}
