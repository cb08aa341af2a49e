package metric

import (
	"net"
	"strings"
	"testing"
	"time"

	"github.com/DataDog/datadog-go/v5/statsd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildTag(t *testing.T) {
	assert.Equal(t, []string{"path:/health", "status:200"}, BuildTag(TagPath, "/health", TagStatus, "200"))
	assert.Equal(t, []string{"method:GET"}, BuildTag(TagMethod, "GET", TagStatus))
	assert.Empty(t, BuildTag())
}

func TestDisabledMetricsAreNoOps(t *testing.T) {
	require.NoError(t, Init(Config{Enabled: false}))
	_, ok := current().(*statsd.NoOpClient)
	assert.True(t, ok)

	Incr(PredictionCount, nil)
	Timing(PredictionLatency, time.Millisecond, nil)
	Gauge(DatasetRows, 10, nil)
	assert.NoError(t, Close())
}

func TestEnabledMetricsReachStatsd(t *testing.T) {
	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, Init(Config{
		Enabled:     true,
		Address:     conn.LocalAddr().String(),
		AppName:     "diamond",
		Environment: "test",
	}))
	Incr(PredictionCount, BuildTag(TagResult, "ok"))
	require.NoError(t, Close())

	buf := make([]byte, 1024)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	n, _, err := conn.ReadFrom(buf)
	require.NoError(t, err)

	packet := string(buf[:n])
	assert.True(t, strings.HasPrefix(packet, "diamond.prediction_count:1|c"), packet)
	assert.Contains(t, packet, "env:test")
	assert.Contains(t, packet, "result:ok")
}
