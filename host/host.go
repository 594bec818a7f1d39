// Package host provides a Go client for a zemote learning remote, speaking its
// line protocol over a serial port.
package host

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"libdb.so/go-zemote"
)

// CommandTimeout bounds how long SendCommand waits for a reply. Program is
// exempt: learning lasts until the user is done.
const CommandTimeout = 10 * time.Second

// Connection is a connection to a zemote device.
type Connection struct {
	// Events is a channel that will receive the codes echoed while the
	// device is learning. These events are received asynchronously for as
	// long as [Start] is running. Events are dropped once the buffer is full.
	// This channel is never closed.
	Events chan Telemetry

	send   chan Command
	oob    chan Command
	reply  chan Reply
	dialer func(context.Context) (io.ReadWriteCloser, error)
}

// New creates a connection that reaches the device through dialer.
// Connection will not be established; you must call Start to connect.
func New(dialer func(context.Context) (io.ReadWriteCloser, error)) *Connection {
	return &Connection{
		Events: make(chan Telemetry, 16),
		send:   make(chan Command),
		oob:    make(chan Command),
		reply:  make(chan Reply),
		dialer: dialer,
	}
}

// NewSerial creates a connection to the device attached to the serial port at
// path, e.g. /dev/ttyACM0, running at baud.
// Connection will not be established; you must call Start to connect.
func NewSerial(path string, baud int) *Connection {
	return New(func(context.Context) (io.ReadWriteCloser, error) {
		return OpenSerial(path, baud)
	})
}

// SendCommand sends a command to the device and waits for its
// acknowledgment. A [Finish] command is written immediately, even while a
// [Program] is waiting, and returns a zero Reply.
func (l *Connection) SendCommand(ctx context.Context, command Command) (Reply, error) {
	if _, ok := command.(Finish); ok {
		select {
		case <-ctx.Done():
			return Reply{}, ctx.Err()
		case l.oob <- command:
			return Reply{}, nil
		}
	}

	select {
	case <-ctx.Done():
		return Reply{}, ctx.Err()
	case l.send <- command:
		// safe to continue
	}

	if _, ok := command.(Program); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, CommandTimeout)
		defer cancel()
	}

	select {
	case <-ctx.Done():
		return Reply{}, ctx.Err()
	case reply := <-l.reply:
		if !answers(command, reply.Command) {
			return reply, fmt.Errorf("unexpected reply command: %q", reply.Command)
		}
		if !reply.Success {
			return reply, ErrUnsuccessfulCommand
		}
		return reply, nil
	}
}

// Learn programs button and blocks until learning ends, either because
// [Connection.Finish] was called or because the button is full.
func (l *Connection) Learn(ctx context.Context, button int) (Reply, error) {
	return l.SendCommand(ctx, Program{Button: button})
}

// Finish ends a [Connection.Learn] in progress.
func (l *Connection) Finish(ctx context.Context) error {
	_, err := l.SendCommand(ctx, Finish{})
	return err
}

// Test plays the codes of button.
func (l *Connection) Test(ctx context.Context, button int) error {
	_, err := l.SendCommand(ctx, Test{Button: button})
	return err
}

// Lengths returns the number of codes stored for every button.
func (l *Connection) Lengths(ctx context.Context) ([]int, error) {
	reply, err := l.SendCommand(ctx, List{})
	if err != nil {
		return nil, err
	}

	lens := make([]int, len(reply.Data))
	for i, line := range reply.Data {
		lens[i], err = strconv.Atoi(line)
		if err != nil {
			return nil, fmt.Errorf("button %d length %q not parseable: %w", i, line, err)
		}
	}
	return lens, nil
}

// Codes returns the codes stored for button.
func (l *Connection) Codes(ctx context.Context, button int) ([]zemote.Code, error) {
	reply, err := l.SendCommand(ctx, Info{Button: button})
	if err != nil {
		return nil, err
	}

	codes := make([]zemote.Code, len(reply.Data))
	for i, line := range reply.Data {
		codes[i], err = zemote.ParseCode(line)
		if err != nil {
			return nil, err
		}
	}
	return codes, nil
}

type connectionState uint

const (
	stateReceive connectionState = iota
	stateData
)

// Start starts the connection. It blocks until the connection is closed or
// ctx is done.
func (r *Connection) Start(ctx context.Context, logger *slog.Logger) error {
	conn, err := r.dialer(ctx)
	if err != nil {
		return fmt.Errorf("cannot open zemote connection: %w", err)
	}

	repliesCh := make(chan Reply)
	sendingCh := r.send

	reader := newLineReader(logger, r.Events, repliesCh)

	var wg sync.WaitGroup
	defer wg.Wait()

	ctx, cancel := context.WithCancelCause(ctx)

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer cancel(nil)

		scanner := bufio.NewScanner(conn)
		for scanner.Scan() {
			line := scanner.Text()
			reader.read(ctx, line)
		}

		if err := scanner.Err(); err != nil && !isClosed(err) {
			logger.Error(
				"error reading from zemote",
				"err", err)
			cancel(err)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer cancel(nil)

		write := func(cmd Command) bool {
			raw := cmd.EncodeCommand() + "\n"
			if _, err := io.WriteString(conn, raw); err != nil {
				logger.Error(
					"error writing to zemote",
					"err", err)
				cancel(err)
				return false
			}
			return true
		}

		var pending bool
		for {
			select {
			case <-ctx.Done():
				return

			case cmd := <-sendingCh:
				if !write(cmd) {
					return
				}

				// Prevent the user from sending any other commands until we've
				// received the reply for this one.
				sendingCh = nil
				pending = true

			case cmd := <-r.oob:
				if !write(cmd) {
					return
				}

			case reply := <-repliesCh:
				// A Finish that reached the device after its capture had
				// ended is refused, and that refusal answers no command.
				if !pending || (reply.Command == zemote.CmdFinish && !reply.Success) {
					logger.Warn(
						"dropping unsolicited reply",
						"command", string(reply.Command),
						"success", reply.Success)
					continue
				}

				select {
				case <-ctx.Done():
					return
				case r.reply <- reply:
					// Reinstate the ability to send commands.
					sendingCh = r.send
					pending = false
				}
			}
		}
	}()

	<-ctx.Done()

	if err := conn.Close(); err != nil {
		return fmt.Errorf("error closing zemote connection: %w", err)
	}

	wg.Wait()
	return context.Cause(ctx)
}

func isClosed(err error) bool {
	return errors.Is(err, net.ErrClosed) || errors.Is(err, os.ErrClosed) || errors.Is(err, io.ErrClosedPipe)
}

type lineReader struct {
	state connectionState
	data  []string

	logger  *slog.Logger
	events  chan Telemetry
	replies chan Reply
}

func newLineReader(logger *slog.Logger, events chan Telemetry, replies chan Reply) *lineReader {
	return &lineReader{
		state:   stateReceive,
		logger:  logger,
		events:  events,
		replies: replies,
	}
}

func (r *lineReader) stateError(err string, attrs ...any) {
	r.logger.
		With("err", err).
		Error("zemote error", attrs...)
	r.state = stateReceive
	r.data = nil
}

func (r *lineReader) flushReply(ctx context.Context, reply Reply) {
	reply.Data = r.data
	r.data = nil
	r.state = stateReceive

	select {
	case <-ctx.Done():
		// no
	case r.replies <- reply:
	}
}

func (r *lineReader) read(ctx context.Context, line string) {
	line = strings.TrimRight(line, "\r")
	if line == "" {
		return
	}

	if cmd, ok := strings.CutPrefix(line, "ok - "); ok {
		if len(cmd) != 1 {
			r.stateError(
				"ack has no single command character",
				"line", line)
			return
		}
		r.flushReply(ctx, Reply{Command: cmd[0], Success: true})
		return
	}

	if cmd, ok := strings.CutPrefix(line, "error - "); ok {
		if len(cmd) != 1 {
			r.stateError(
				"error has no single command character",
				"line", line)
			return
		}
		r.flushReply(ctx, Reply{Command: cmd[0], Success: false})
		return
	}

	switch r.state {
	case stateReceive:
		if h, ok := strings.CutPrefix(line, "0x"); ok {
			v, err := strconv.ParseUint(h, 16, 32)
			if err != nil {
				r.stateError(
					"capture telemetry not parseable as hex",
					"line", line)
				return
			}

			select {
			case r.events <- Telemetry{Value: uint32(v)}:
			default:
				r.logger.Debug(
					"dropping capture telemetry, nobody is receiving",
					"value", line)
			}
			return
		}

		r.state = stateData
		r.data = append(r.data, line)

	case stateData:
		r.data = append(r.data, line)
	}
}
