// Package ipc exposes a control socket for a running bar. External scripts
// (keybindings, cron, udev hooks) use it to force block refreshes or query
// the current bar state without scraping the protocol stream.
package ipc

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"strings"
	"sync"
)

// Handler processes incoming control commands. The bar wires one up in
// main; tests use fakes.
type Handler interface {
	HandleCommand(cmd string, args []string) (string, error)
}

// Server listens on a Unix domain socket for line-based text commands and
// returns JSON responses.
//
// Protocol:
//   - Client sends a single line: COMMAND [arg1] [arg2] ...
//   - Server responds with a JSON line followed by a newline.
//   - Supported commands: PING, STATUS, REFRESH [block-id], QUIT
type Server struct {
	socketPath string
	handler    Handler
	listener   net.Listener
	wg         sync.WaitGroup
	done       chan struct{}
}

// NewServer creates a control server that will listen on socketPath and
// dispatch commands to handler.
func NewServer(socketPath string, handler Handler) *Server {
	return &Server{
		socketPath: socketPath,
		handler:    handler,
		done:       make(chan struct{}),
	}
}

// Start begins listening for connections on the Unix socket. The socket
// file is created with mode 0600; any stale socket at the path is removed
// first.
func (s *Server) Start() error {
	os.Remove(s.socketPath)

	ln, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("ipc: listen on %s: %w", s.socketPath, err)
	}
	if err := os.Chmod(s.socketPath, 0o600); err != nil {
		ln.Close()
		return fmt.Errorf("ipc: chmod socket: %w", err)
	}

	s.listener = ln

	s.wg.Add(1)
	go s.acceptLoop()

	return nil
}

// Stop shuts the server down: closes the listener, waits for in-flight
// connections, and removes the socket file. Safe to call more than once.
func (s *Server) Stop() {
	select {
	case <-s.done:
		return
	default:
	}

	close(s.done)

	if s.listener != nil {
		s.listener.Close()
	}

	s.wg.Wait()

	os.Remove(s.socketPath)
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.done:
				return
			default:
				// Transient error, continue accepting.
				continue
			}
		}

		s.wg.Add(1)
		go s.handleConn(conn)
	}
}

// handleConn processes a single client connection: one command line in, one
// JSON line out.
func (s *Server) handleConn(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	scanner := bufio.NewScanner(conn)
	if !scanner.Scan() {
		return
	}

	line := strings.TrimSpace(scanner.Text())
	if line == "" {
		return
	}

	cmd, args := parseCommand(line)

	response, err := s.handler.HandleCommand(cmd, args)
	if err != nil {
		data, _ := json.Marshal(map[string]string{"error": err.Error()})
		fmt.Fprintf(conn, "%s\n", data)
		return
	}

	// Compact to a single line for the line-based transport. Non-JSON
	// responses pass through untouched.
	if compacted, err := compactJSON(response); err == nil {
		response = compacted
	}

	fmt.Fprintf(conn, "%s\n", response)
}

// parseCommand splits a command line into the uppercased command name and
// its positional arguments.
func parseCommand(line string) (string, []string) {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return "", nil
	}
	return strings.ToUpper(parts[0]), parts[1:]
}

// Client connects to a running bar's control socket to send commands.
type Client struct {
	socketPath string
}

// NewClient creates a client for the bar listening at socketPath.
func NewClient(socketPath string) *Client {
	return &Client{socketPath: socketPath}
}

// SendCommand sends a text command and returns the raw response line. Each
// call opens a fresh connection.
func (c *Client) SendCommand(cmd string) (string, error) {
	conn, err := net.Dial("unix", c.socketPath)
	if err != nil {
		return "", fmt.Errorf("ipc: connect to bar: %w", err)
	}
	defer conn.Close()

	fmt.Fprintf(conn, "%s\n", cmd)

	scanner := bufio.NewScanner(conn)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", fmt.Errorf("ipc: read response: %w", err)
		}
		return "", fmt.Errorf("ipc: empty response from bar")
	}
	return scanner.Text(), nil
}

func compactJSON(s string) (string, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(s)); err != nil {
		return "", err
	}
	return buf.String(), nil
}
