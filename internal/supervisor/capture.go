//go:build linux

package supervisor

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	// StreamStdout and StreamStderr tag log events with their origin.
	StreamStdout = "stdout"
	StreamStderr = "stderr"

	captureReadSize = 4096
)

// captureOutput is the per-node output-capture task. It drains both pipes
// concurrently, frames the byte stream into lines and publishes one log
// event per line. It holds only the pipes and the record's event queue;
// it never mutates the registry or touches other records.
//
// The task ends when both streams reach EOF and the process has been
// reaped, then publishes the final "Output capture finished." status.
func captureOutput(log *zap.Logger, rec *NodeRecord, stdout, stderr io.ReadCloser) {
	defer close(rec.captureDone)

	var g errgroup.Group
	g.Go(func() error {
		captureStream(log, rec, stdout, StreamStdout)
		return nil
	})
	g.Go(func() error {
		captureStream(log, rec, stderr, StreamStderr)
		return nil
	})
	_ = g.Wait()

	// Pipes at EOF; wait for the exit status before declaring the stream
	// history complete.
	<-rec.waitDone

	rec.events.Push(EventStatus, "Output capture finished.")
	log.Debug("output capture finished", zap.String("name", rec.Name))
}

// captureStream reads one pipe to EOF. Bytes are accumulated across
// partial reads and split on '\n'; complete lines are published
// immediately, the trailing partial line is flushed once at EOF.
//
// Read errors other than EOF produce a single error event and abandon the
// stream without killing the task.
func captureStream(log *zap.Logger, rec *NodeRecord, r io.ReadCloser, stream string) {
	defer r.Close()

	buf := make([]byte, captureReadSize)
	var pending []byte
	warnedReplace := false

	for {
		n, err := r.Read(buf)
		if n > 0 {
			pending = append(pending, buf[:n]...)
			pending = emitLines(rec, pending, stream, &warnedReplace)
		}
		if err != nil {
			if err != io.EOF {
				rec.events.PushStreamError(stream, err.Error())
				log.Error("pipe read failure",
					zap.String("name", rec.Name),
					zap.String("stream", stream),
					zap.Error(err))
			}
			break
		}
	}

	// Best-effort drain: a final line with no trailing newline is emitted
	// exactly once here.
	if line := frameLine(pending, stream, rec, &warnedReplace); line != "" {
		rec.events.PushLog(stream, line)
	}
}

// emitLines publishes every complete line in pending and returns the
// leftover partial tail.
func emitLines(rec *NodeRecord, pending []byte, stream string, warnedReplace *bool) []byte {
	for {
		i := bytes.IndexByte(pending, '\n')
		if i < 0 {
			return pending
		}
		if line := frameLine(pending[:i], stream, rec, warnedReplace); line != "" {
			rec.events.PushLog(stream, line)
		}
		pending = pending[i+1:]
	}
}

// frameLine decodes one raw line: invalid UTF-8 is replaced (with a single
// warning per stream the first time), trailing whitespace is stripped and
// empty lines collapse to "".
func frameLine(raw []byte, stream string, rec *NodeRecord, warnedReplace *bool) string {
	s := string(raw)
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, string(utf8.RuneError))
		if !*warnedReplace {
			*warnedReplace = true
			rec.events.Push(EventWarning,
				fmt.Sprintf("Invalid UTF-8 on %s; bytes replaced.", stream))
		}
	}
	return strings.TrimRight(s, " \t\r\n")
}
