package notify

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"vigil/core"
)

// MockSMTPServer implements a minimal SMTP server for testing email
// notifications: message capture, failure simulation, and delay injection.
type MockSMTPServer struct {
	listener   net.Listener
	port       int
	host       string
	messages   []CapturedEmail
	messagesMu sync.RWMutex
	shouldFail bool
	delay      time.Duration
	mu         sync.RWMutex
}

// CapturedEmail represents an email captured by the mock SMTP server.
type CapturedEmail struct {
	From       string
	To         []string
	Subject    string
	Body       string
	Headers    map[string]string
	CapturedAt time.Time
}

// NewMockSMTPServer starts a mock SMTP server on a random loopback port.
func NewMockSMTPServer() (*MockSMTPServer, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("failed to create listener: %w", err)
	}

	addr := listener.Addr().(*net.TCPAddr)
	server := &MockSMTPServer{
		listener: listener,
		port:     addr.Port,
		host:     "127.0.0.1",
	}

	go server.serve()

	return server, nil
}

func (m *MockSMTPServer) serve() {
	for {
		conn, err := m.listener.Accept()
		if err != nil {
			return // listener closed
		}
		go m.handleConnection(conn)
	}
}

func (m *MockSMTPServer) handleConnection(conn net.Conn) {
	defer conn.Close()

	m.mu.RLock()
	delay := m.delay
	shouldFail := m.shouldFail
	m.mu.RUnlock()

	if delay > 0 {
		time.Sleep(delay)
	}

	conn.Write([]byte("220 mock-smtp-server ESMTP\r\n"))

	scanner := bufio.NewScanner(conn)
	var from string
	var to []string
	var data bytes.Buffer
	inData := false

	for scanner.Scan() {
		line := scanner.Text()
		upper := strings.ToUpper(line)

		if shouldFail {
			conn.Write([]byte("500 Server error\r\n"))
			continue
		}

		switch {
		case strings.HasPrefix(upper, "EHLO"), strings.HasPrefix(upper, "HELO"):
			conn.Write([]byte("250-mock-smtp-server\r\n250-PIPELINING\r\n250 8BITMIME\r\n"))
		case strings.HasPrefix(upper, "MAIL FROM:"):
			from = extractEmailAddress(line)
			conn.Write([]byte("250 OK\r\n"))
		case strings.HasPrefix(upper, "RCPT TO:"):
			to = append(to, extractEmailAddress(line))
			conn.Write([]byte("250 OK\r\n"))
		case upper == "DATA":
			conn.Write([]byte("354 End data with <CR><LF>.<CR><LF>\r\n"))
			inData = true
			data.Reset()
		case inData:
			if line == "." {
				m.captureEmail(from, to, data.String())
				conn.Write([]byte("250 OK\r\n"))
				inData = false
				from = ""
				to = nil
				continue
			}
			data.WriteString(strings.TrimPrefix(line, ".") + "\r\n")
		case upper == "QUIT":
			conn.Write([]byte("221 Bye\r\n"))
			return
		default:
			conn.Write([]byte("250 OK\r\n"))
		}
	}
}

func (m *MockSMTPServer) captureEmail(from string, to []string, rawMessage string) {
	headers := make(map[string]string)
	var body strings.Builder
	inBody := false

	for _, line := range strings.Split(rawMessage, "\r\n") {
		if line == "" && !inBody {
			inBody = true
			continue
		}
		if !inBody {
			parts := strings.SplitN(line, ":", 2)
			if len(parts) == 2 {
				headers[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
			}
		} else {
			body.WriteString(line)
			body.WriteString("\n")
		}
	}

	m.messagesMu.Lock()
	defer m.messagesMu.Unlock()
	m.messages = append(m.messages, CapturedEmail{
		From:       from,
		To:         to,
		Subject:    headers["Subject"],
		Body:       strings.TrimSuffix(body.String(), "\n"),
		Headers:    headers,
		CapturedAt: time.Now(),
	})
}

// GetMessages returns all captured emails.
func (m *MockSMTPServer) GetMessages() []CapturedEmail {
	m.messagesMu.RLock()
	defer m.messagesMu.RUnlock()
	messages := make([]CapturedEmail, len(m.messages))
	copy(messages, m.messages)
	return messages
}

// SetShouldFail configures the server to simulate failures.
func (m *MockSMTPServer) SetShouldFail(shouldFail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shouldFail = shouldFail
}

// SetDelay configures a delay to simulate slow channels.
func (m *MockSMTPServer) SetDelay(delay time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = delay
}

// Host returns the server host.
func (m *MockSMTPServer) Host() string {
	return m.host
}

// Port returns the server port.
func (m *MockSMTPServer) Port() int {
	return m.port
}

// Close stops the mock SMTP server.
func (m *MockSMTPServer) Close() error {
	if m.listener != nil {
		return m.listener.Close()
	}
	return nil
}

// extractEmailAddress extracts an email address from an SMTP command line.
func extractEmailAddress(line string) string {
	start := strings.Index(line, "<")
	end := strings.Index(line, ">")
	if start != -1 && end != -1 && end > start {
		return line[start+1 : end]
	}
	parts := strings.SplitN(line, ":", 2)
	if len(parts) == 2 {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// MockHTTPServer implements a mock HTTP server for testing webhook
// notifications with request capture, failure simulation, and delays.
type MockHTTPServer struct {
	server     *http.Server
	listener   net.Listener
	port       int
	host       string
	requests   []CapturedHTTPRequest
	requestsMu sync.RWMutex
	shouldFail bool
	failStatus int
	delay      time.Duration
	mu         sync.RWMutex
}

// CapturedHTTPRequest represents an HTTP request captured by the mock server.
type CapturedHTTPRequest struct {
	Method     string
	URL        string
	Headers    map[string]string
	Body       string
	CapturedAt time.Time
}

// NewMockHTTPServer starts a mock webhook endpoint on a random loopback port.
func NewMockHTTPServer() (*MockHTTPServer, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("failed to create listener: %w", err)
	}

	addr := listener.Addr().(*net.TCPAddr)
	mockServer := &MockHTTPServer{
		listener:   listener,
		port:       addr.Port,
		host:       "127.0.0.1",
		failStatus: http.StatusInternalServerError,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", mockServer.handleRequest)
	mockServer.server = &http.Server{Handler: mux}

	go mockServer.server.Serve(listener)

	return mockServer, nil
}

func (m *MockHTTPServer) handleRequest(w http.ResponseWriter, r *http.Request) {
	m.mu.RLock()
	delay := m.delay
	shouldFail := m.shouldFail
	failStatus := m.failStatus
	m.mu.RUnlock()

	if delay > 0 {
		time.Sleep(delay)
	}

	bodyBytes, err := io.ReadAll(r.Body)
	if err != nil {
		bodyBytes = []byte{}
	}

	headers := make(map[string]string)
	for key, values := range r.Header {
		if len(values) > 0 {
			headers[key] = values[0]
		}
	}

	m.requestsMu.Lock()
	m.requests = append(m.requests, CapturedHTTPRequest{
		Method:     r.Method,
		URL:        r.URL.String(),
		Headers:    headers,
		Body:       string(bodyBytes),
		CapturedAt: time.Now(),
	})
	m.requestsMu.Unlock()

	if shouldFail {
		w.WriteHeader(failStatus)
		w.Write([]byte("Simulated error"))
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// GetRequests returns all captured HTTP requests.
func (m *MockHTTPServer) GetRequests() []CapturedHTTPRequest {
	m.requestsMu.RLock()
	defer m.requestsMu.RUnlock()
	requests := make([]CapturedHTTPRequest, len(m.requests))
	copy(requests, m.requests)
	return requests
}

// SetShouldFail configures the server to simulate failures.
func (m *MockHTTPServer) SetShouldFail(shouldFail bool, statusCode int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shouldFail = shouldFail
	m.failStatus = statusCode
}

// SetDelay configures a delay to simulate slow channels.
func (m *MockHTTPServer) SetDelay(delay time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = delay
}

// URL returns the server URL.
func (m *MockHTTPServer) URL() string {
	return fmt.Sprintf("http://%s:%d", m.host, m.port)
}

// Close stops the mock HTTP server.
func (m *MockHTTPServer) Close() error {
	if m.listener != nil {
		return m.listener.Close()
	}
	return nil
}

// FuncSender adapts a function to the Sender contract for tests.
type FuncSender struct {
	ChannelKind  string
	ConfiguredFn func(rule *core.Rule) bool
	SendFn       func(ctx context.Context, alert *core.Alert, rule *core.Rule) error
}

// Kind identifies the channel.
func (s *FuncSender) Kind() string {
	return s.ChannelKind
}

// Configured reports whether the test rule targets this channel.
func (s *FuncSender) Configured(rule *core.Rule) bool {
	if s.ConfiguredFn == nil {
		return true
	}
	return s.ConfiguredFn(rule)
}

// Send invokes the test function.
func (s *FuncSender) Send(ctx context.Context, alert *core.Alert, rule *core.Rule) error {
	if s.SendFn == nil {
		return nil
	}
	return s.SendFn(ctx, alert, rule)
}

// CreateTestAlert creates a test alert for notification testing.
func CreateTestAlert(severity core.Severity, ruleID, ruleName string) *core.Alert {
	return core.NewAlert(
		&core.Rule{ID: ruleID, Name: ruleName, Severity: severity, EventType: "login_failure", Enabled: true},
		&core.Event{
			Type: "login_failure",
			Data: map[string]any{
				"source_ip": "192.168.1.100",
				"user":      "testuser",
				"count":     5,
			},
			Source:     "auth-service",
			Priority:   "normal",
			ReceivedAt: time.Now().UTC(),
		},
	)
}
