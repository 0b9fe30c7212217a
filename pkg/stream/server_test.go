package stream

import (
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"

	"github.com/robotalks/sps30.go/pkg/sps30"
)

type testSource struct {
	lock   sync.Mutex
	sample sps30.Sample
}

func (s *testSource) GetMeasurement() sps30.Sample {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.sample
}

func (s *testSource) set(sample sps30.Sample) {
	s.lock.Lock()
	s.sample = sample
	s.lock.Unlock()
}

func TestServerStreamsNewSamples(t *testing.T) {
	source := &testSource{}
	s := NewServer("", source)
	s.Interval = time.Millisecond
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	conn, err := websocket.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), "", srv.URL)
	require.NoError(t, err)
	defer conn.Close()

	source.set(sps30.Sample{ParticleSize: 0.5, Timestamp: time.Unix(10, 0)})
	var msg map[string]interface{}
	require.NoError(t, websocket.JSON.Receive(conn, &msg))
	require.Equal(t, float64(10), msg["timestamp"])
	require.Equal(t, 0.5, msg["particle_size"])

	source.set(sps30.Sample{ParticleSize: 0.75, Timestamp: time.Unix(11, 0)})
	msg = nil
	require.NoError(t, websocket.JSON.Receive(conn, &msg))
	require.Equal(t, float64(11), msg["timestamp"])
	require.Equal(t, 0.75, msg["particle_size"])
}
