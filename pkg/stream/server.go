// Package stream serves latest samples over websocket.
package stream

import (
	"context"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"

	fx "github.com/robotalks/sps30.go/pkg/framework"
	"github.com/robotalks/sps30.go/pkg/sps30"
)

// SampleSource provides the latest sample.
type SampleSource interface {
	GetMeasurement() sps30.Sample
}

// Server pushes every new sample as a JSON message to connected clients.
type Server struct {
	Addr     string
	Source   SampleSource
	Interval time.Duration

	done <-chan struct{}
}

// DefaultInterval is how often a client connection checks for new samples.
const DefaultInterval = 100 * time.Millisecond

// NewServer creates a Server.
func NewServer(addr string, source SampleSource) *Server {
	return &Server{Addr: addr, Source: source, Interval: DefaultInterval}
}

// Handler returns the websocket handler.
func (s *Server) Handler() http.Handler {
	return websocket.Handler(s.serve)
}

// Run implements Runnable.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	s.done = ctx.Done()
	mux := http.NewServeMux()
	mux.Handle("/samples", s.Handler())
	glog.Infof("websocket listening on %s", ln.Addr())
	return fx.RunWithContextCloser(ctx, ln, func() error {
		return http.Serve(ln, mux)
	})
}

func (s *Server) serve(conn *websocket.Conn) {
	defer conn.Close()
	interval := s.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	// clients are not expected to send, reading only detects close.
	closed := make(chan struct{})
	go func() {
		io.Copy(io.Discard, conn)
		close(closed)
	}()
	var last time.Time
	for {
		if sample := s.Source.GetMeasurement(); !sample.IsEmpty() && sample.Timestamp.After(last) {
			if err := websocket.JSON.Send(conn, sample); err != nil {
				glog.V(2).Infof("websocket %s closed: %v", conn.Request().RemoteAddr, err)
				return
			}
			last = sample.Timestamp
		}
		select {
		case <-s.done:
			return
		case <-closed:
			return
		case <-ticker.C:
		}
	}
}
