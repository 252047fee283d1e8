package syslog_test

import (
	"context"
	"net"
	"testing"
	"time"

	ingestormocks "weblog-analytics/internal/ingestors/mocks"
	"weblog-analytics/internal/syslog"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func startListener(t *testing.T, ingestion *ingestormocks.MockIngestionService) (syslog.Listener, net.Conn) {
	t.Helper()

	listener := syslog.NewListener("127.0.0.1:0", ingestion, zerolog.Nop())
	require.NoError(t, listener.Start(context.Background()))
	t.Cleanup(listener.Stop)

	conn, err := net.Dial("udp", listener.Addr().String())
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return listener, conn
}

func TestListener_DeliversDecodedEvents(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ingested := make(chan map[string]any, 1)
	ingestion := ingestormocks.NewMockIngestionService(ctrl)
	ingestion.EXPECT().Ingest(gomock.Any(), "demo", gomock.Any()).DoAndReturn(
		func(_ context.Context, _ string, fields map[string]any) error {
			ingested <- fields
			return nil
		})

	_, conn := startListener(t, ingestion)

	frame := `<190>Aug 31 12:00:00 host nginx: {"service": "demo", "path": "/", "status": 200, "ip": "192.0.2.1"}`
	_, err := conn.Write([]byte(frame))
	require.NoError(t, err)

	select {
	case fields := <-ingested:
		assert.NotContains(t, fields, "service", "service routing key is stripped from the event")
		assert.Equal(t, "/", fields["path"])
		assert.Equal(t, float64(200), fields["status"])
		assert.Equal(t, "192.0.2.1", fields["ip"])
	case <-time.After(5 * time.Second):
		t.Fatal("event never reached the ingestion service")
	}
}

func TestListener_DropsMalformedFrames(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ingested := make(chan struct{}, 1)
	ingestion := ingestormocks.NewMockIngestionService(ctrl)
	ingestion.EXPECT().Ingest(gomock.Any(), "demo", gomock.Any()).DoAndReturn(
		func(_ context.Context, _ string, _ map[string]any) error {
			ingested <- struct{}{}
			return nil
		})

	_, conn := startListener(t, ingestion)

	// None of these may reach the ingestion service.
	malformed := []string{
		`no syslog header at all`,
		`<190>Aug 31 12:00:00 host nginx: not json`,
		`<190>Aug 31 12:00:00 host nginx: {"path": "/"}`,
		`<190>Aug 31 12:00:00 host nginx: {"service": "", "path": "/"}`,
	}
	for _, frame := range malformed {
		_, err := conn.Write([]byte(frame))
		require.NoError(t, err)
	}

	// A valid frame sent last proves the loop survived the bad ones.
	_, err := conn.Write([]byte(`<190>host nginx: {"service": "demo", "path": "/"}`))
	require.NoError(t, err)

	select {
	case <-ingested:
	case <-time.After(5 * time.Second):
		t.Fatal("listener stopped processing after a malformed frame")
	}
}

func TestListener_StopIsIdempotent(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ingestion := ingestormocks.NewMockIngestionService(ctrl)
	listener, _ := startListener(t, ingestion)

	listener.Stop()
	listener.Stop()
}
