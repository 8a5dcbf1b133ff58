package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/study-library/internal/core/domain"
	"github.com/kirillkom/study-library/internal/infrastructure/resilience"
)

const (
	DefaultSubject = "documents.uploaded"
	workerGroup    = "page-indexers"
)

// uploadedEvent is the wire payload of DefaultSubject.
type uploadedEvent struct {
	DocumentID int64 `json:"document_id"`
}

// Events carries document lifecycle events over a NATS core connection.
type Events struct {
	conn     *nats.Conn
	subject  string
	executor *resilience.Executor
}

type Options struct {
	ConnectTimeout time.Duration
	ReconnectWait  time.Duration
	MaxReconnects  int
	Executor       *resilience.Executor
}

func Connect(url, subject, clientName string, options Options) (*Events, error) {
	if subject == "" {
		subject = DefaultSubject
	}
	connectTimeout := options.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 2 * time.Second
	}
	reconnectWait := options.ReconnectWait
	if reconnectWait <= 0 {
		reconnectWait = 2 * time.Second
	}
	maxReconnects := options.MaxReconnects
	if maxReconnects <= 0 {
		maxReconnects = 60
	}

	conn, err := nats.Connect(
		url,
		nats.Name(clientName),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.RetryOnFailedConnect(true),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("nats_disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("nats_reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &Events{conn: conn, subject: subject, executor: options.Executor}, nil
}

func (e *Events) Close() {
	if e.conn != nil {
		e.conn.Close()
	}
}

func (e *Events) PublishDocumentUploaded(ctx context.Context, documentID int64) error {
	payload, err := json.Marshal(uploadedEvent{DocumentID: documentID})
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	call := func(context.Context) error {
		if err := e.conn.Publish(e.subject, payload); err != nil {
			return fmt.Errorf("nats publish: %w", err)
		}
		return nil
	}

	if e.executor != nil {
		err = e.executor.Do(ctx, call)
	} else {
		err = call(ctx)
	}
	return wrapTemporaryIfNeeded(err)
}

// SubscribeDocumentUploaded blocks until ctx is done, delivering each event to one
// member of the worker queue group. Handler errors are logged, not redelivered.
func (e *Events) SubscribeDocumentUploaded(ctx context.Context, handler func(context.Context, int64) error) error {
	sub, err := e.conn.QueueSubscribe(e.subject, workerGroup, func(msg *nats.Msg) {
		if ctx.Err() != nil {
			return
		}
		documentID, err := decodeUploaded(msg.Data)
		if err != nil {
			slog.Warn("document_event_malformed", "subject", msg.Subject, "error", err)
			return
		}
		if err := handler(ctx, documentID); err != nil {
			slog.Error("document_event_handler_failed", "document_id", documentID, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("nats subscribe: %w", err)
	}
	if err := e.conn.Flush(); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		return fmt.Errorf("nats drain subscription: %w", err)
	}
	if err := e.conn.FlushTimeout(5 * time.Second); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
		return fmt.Errorf("nats flush after drain: %w", err)
	}
	return nil
}

func decodeUploaded(data []byte) (int64, error) {
	var event uploadedEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return 0, fmt.Errorf("decode event: %w", err)
	}
	if event.DocumentID <= 0 {
		return 0, fmt.Errorf("decode event: invalid document id %d", event.DocumentID)
	}
	return event.DocumentID, nil
}

// Disabled stands in for Events when no NATS URL is configured.
type Disabled struct{}

func (Disabled) PublishDocumentUploaded(context.Context, int64) error { return nil }

func (Disabled) SubscribeDocumentUploaded(context.Context, func(context.Context, int64) error) error {
	return domain.WrapError(domain.ErrTemporary, "subscribe document events", errors.New("events are disabled"))
}
