// Package accesslog emits the one-line-per-request access log of
// freshserv and feeds the optional metrics and journal hooks.
package accesslog

import (
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/pelageech/freshserv/journal"
	"github.com/pelageech/freshserv/metrics"
)

// Logger writes one access line per handled request. The line goes to
// out; diagnostics (durations, journal failures) go to the injected
// logger and never mix into the access stream.
type Logger struct {
	out     io.Writer
	logger  *log.Logger
	metrics *metrics.Metrics
	journal *journal.Service
}

// New creates a Logger writing access lines to out. A nil out falls
// back to standard output, a nil logger to a default stderr logger.
func New(out io.Writer, logger *log.Logger) *Logger {
	if out == nil {
		out = os.Stdout
	}
	if logger == nil {
		logger = log.New(os.Stderr)
	}
	return &Logger{
		out:    out,
		logger: logger,
	}
}

// SetMetrics attaches the metrics collectors driven per request.
func (l *Logger) SetMetrics(m *metrics.Metrics) {
	l.metrics = m
}

// SetJournal attaches the journal receiving one record per request.
func (l *Logger) SetJournal(j *journal.Service) {
	l.journal = j
}

// Wrap returns a handler that serves the request through next and then
// writes the access line:
//
//	<client-ip> - "<method> <uri> <proto>" <status> <bytes>
func (l *Logger) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		if l.metrics != nil {
			l.metrics.RequestsNow.Inc()
		}

		sw := &statusWriter{ResponseWriter: w}
		next.ServeHTTP(sw, r)

		if sw.status == 0 {
			// The delegate finished without writing anything; the net/http
			// machinery reports that as 200.
			sw.status = http.StatusOK
		}

		fmt.Fprintf(l.out, "%s - \"%s %s %s\" %d %d\n",
			clientAddr(r), r.Method, r.RequestURI, r.Proto, sw.status, sw.bytes)
		l.logger.Debug("Request served", "path", r.URL.Path, "status", sw.status, "took", time.Since(start))

		if l.metrics != nil {
			l.metrics.RequestsNow.Dec()
			l.metrics.Requests.Inc()
			l.metrics.ResponseBodySize.Observe(float64(sw.bytes))
			if sw.status == http.StatusNotFound {
				l.metrics.NotFound.Inc()
			}
		}

		if l.journal != nil {
			err := l.journal.Insert(journal.Record{
				Time:       start,
				RemoteAddr: clientAddr(r),
				Method:     r.Method,
				Path:       r.URL.Path,
				Status:     sw.status,
				Bytes:      sw.bytes,
			})
			if err != nil {
				l.logger.Error("Failed to journal the request", "err", err)
			}
		}
	})
}

// statusWriter captures what the delegate wrote so the access line can
// report status and body size.
type statusWriter struct {
	http.ResponseWriter
	status int
	bytes  int64
}

func (w *statusWriter) WriteHeader(status int) {
	if w.status == 0 {
		w.status = status
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(p)
	w.bytes += int64(n)
	return n, err
}

// clientAddr strips the port from the peer address; the access line
// wants the bare IP.
func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
