package syslog

import (
	"context"
	"net"
	"regexp"
	"sync"

	"weblog-analytics/internal/ingestors"
	"weblog-analytics/internal/shared/loggers"
	"weblog-analytics/internal/shared/metrics"
	"weblog-analytics/internal/shared/svcerrors"
	"weblog-analytics/internal/shared/ulid"

	"github.com/goccy/go-json"
)

// nginx prepends a syslog header to every access_log line; none of the
// RFC 3164/5424 parsers handle its exact shape, so the header is matched
// loosely and only the JSON payload after ": " is kept.
var nginxFrame = regexp.MustCompile(`\A<[0-9]{1,3}>.*?: (.+)\z`)

const maxDatagramSize = 65536

// Listener receives nginx access-log datagrams over UDP, decodes the
// JSON payload and hands each event to the ingestion service. Malformed
// frames are logged and dropped; a bad datagram never stops the loop.
type Listener interface {
	Start(ctx context.Context) error
	Stop()
	// Addr is the bound socket address; nil before Start.
	Addr() net.Addr
}

type listener struct {
	addr      string
	ingestion ingestors.IngestionService

	conn net.PacketConn

	wg       sync.WaitGroup
	stopOnce sync.Once
	stopCh   chan struct{}

	logger loggers.Logger
}

func NewListener(addr string, ingestion ingestors.IngestionService, logger loggers.Logger) Listener {
	return &listener{
		addr:      addr,
		ingestion: ingestion,
		stopCh:    make(chan struct{}),
		logger:    logger,
	}
}

// Start binds the UDP socket and spawns the receive loop.
func (l *listener) Start(ctx context.Context) error {
	conn, err := net.ListenPacket("udp", l.addr)
	if err != nil {
		return errListenFailed(l.addr, err)
	}
	l.conn = conn

	l.logger.Info().Str(loggers.FieldRemoteAddr, conn.LocalAddr().String()).Msg("syslog listener started")

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()

		l.receiveLoop(ctx)
	}()
	return nil
}

func (l *listener) Addr() net.Addr {
	if l.conn == nil {
		return nil
	}
	return l.conn.LocalAddr()
}

// Stop closes the socket and waits for the receive loop to drain.
func (l *listener) Stop() {
	l.stopOnce.Do(func() {
		close(l.stopCh)
		if l.conn != nil {
			_ = l.conn.Close()
		}
	})
	l.wg.Wait()
}

func (l *listener) receiveLoop(ctx context.Context) {
	buf := make([]byte, maxDatagramSize)
	for {
		n, addr, err := l.conn.ReadFrom(buf)
		if err != nil {
			select {
			case <-l.stopCh:
				return
			case <-ctx.Done():
				return
			default:
			}
			l.logger.Warn().Err(err).Msg("syslog read failed")
			continue
		}

		frame := make([]byte, n)
		copy(frame, buf[:n])
		l.handleFrame(ctx, addr, frame)
	}
}

func (l *listener) handleFrame(ctx context.Context, addr net.Addr, frame []byte) {
	ctx = l.logger.With().
		Str(loggers.FieldRequestID, ulid.NewULID()).
		Str(loggers.FieldRemoteAddr, addr.String()).
		Logger().WithContext(ctx)

	match := nginxFrame.FindSubmatch(frame)
	if match == nil {
		loggers.Ctx(ctx).Info().Msg("datagram without a syslog payload")
		metricFramesReceivedTotal.WithLabelValues(codeMalformedFrame).Inc()
		return
	}

	var fields map[string]any
	if err := json.Unmarshal(match[1], &fields); err != nil {
		loggers.Ctx(ctx).Info().Err(err).Msg("malformed JSON payload")
		metricFramesReceivedTotal.WithLabelValues(codeMalformedPayload).Inc()
		return
	}

	service, _ := fields["service"].(string)
	if service == "" {
		loggers.Ctx(ctx).Info().Msg("payload without a service field")
		metricFramesReceivedTotal.WithLabelValues(codeMissingService).Inc()
		return
	}
	delete(fields, "service")

	if err := l.ingestion.Ingest(ctx, service, fields); err != nil {
		errorCode := codeMalformedPayload
		if svcErr, ok := svcerrors.As(err); ok {
			errorCode = svcErr.Code
		}
		loggers.Ctx(ctx).Info().Err(err).Msg("event rejected")
		metricFramesReceivedTotal.WithLabelValues(errorCode).Inc()
		return
	}
	metricFramesReceivedTotal.WithLabelValues(metrics.ValueNoError).Inc()
}
