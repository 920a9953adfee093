package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kirillkom/gomi-assistant/internal/infrastructure/resilience"
	"github.com/nats-io/nats.go"
)

const workerGroup = "catalog-workers"

// catalogUploadedEvent is the message body published after an upload is stored.
type catalogUploadedEvent struct {
	UploadID    string    `json:"upload_id"`
	PublishedAt time.Time `json:"published_at"`
}

type Queue struct {
	conn     *nats.Conn
	subject  string
	executor *resilience.Executor
	onLag    func(time.Duration)
	now      func() time.Time
}

type Options struct {
	ConnectTimeout       time.Duration
	ReconnectWait        time.Duration
	MaxReconnects        int
	RetryOnFailedConnect *bool
	Executor             *resilience.Executor
	// OnQueueLag receives the delay between publish and delivery of each event.
	OnQueueLag func(time.Duration)
}

func New(url, subject string, options Options) (*Queue, error) {
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
	retryOnFailedConnect := true
	if options.RetryOnFailedConnect != nil {
		retryOnFailedConnect = *options.RetryOnFailedConnect
	}

	conn, err := nats.Connect(
		url,
		nats.Name("gomi-assistant"),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.RetryOnFailedConnect(retryOnFailedConnect),
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
	return &Queue{
		conn:     conn,
		subject:  subject,
		executor: options.Executor,
		onLag:    options.OnQueueLag,
		now:      time.Now,
	}, nil
}

func (q *Queue) Close() {
	if q.conn != nil {
		q.conn.Close()
	}
}

func (q *Queue) PublishCatalogUploaded(ctx context.Context, uploadID string) error {
	payload, err := encodeEvent(uploadID, q.now())
	if err != nil {
		return err
	}

	err = q.executor.Execute(ctx, "nats_publish", func(context.Context) error {
		if err := q.conn.Publish(q.subject, payload); err != nil {
			return fmt.Errorf("nats publish: %w", err)
		}
		return nil
	}, classifyNATSError)
	return wrapTemporaryIfNeeded(err)
}

// SubscribeCatalogUploaded blocks until ctx is done, then drains the subscription
// so in-flight handlers can finish.
func (q *Queue) SubscribeCatalogUploaded(ctx context.Context, handler func(context.Context, string) error) error {
	sub, err := q.conn.QueueSubscribe(q.subject, workerGroup, func(msg *nats.Msg) {
		if ctx.Err() != nil {
			return
		}

		event, err := decodeEvent(msg.Data)
		if err != nil {
			slog.Error("catalog_event_decode_failed", "subject", msg.Subject, "error", err)
			return
		}
		if q.onLag != nil && !event.PublishedAt.IsZero() {
			q.onLag(q.now().Sub(event.PublishedAt))
		}

		handlerCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		if err := handler(handlerCtx, event.UploadID); err != nil {
			slog.Error("catalog_handler_failed", "upload_id", event.UploadID, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("nats subscribe: %w", err)
	}

	if err := q.conn.Flush(); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		return fmt.Errorf("nats drain subscription: %w", err)
	}
	if err := q.conn.FlushTimeout(5 * time.Second); err != nil {
		return fmt.Errorf("nats flush after drain: %w", err)
	}
	return nil
}

func encodeEvent(uploadID string, at time.Time) ([]byte, error) {
	uploadID = strings.TrimSpace(uploadID)
	if uploadID == "" {
		return nil, fmt.Errorf("encode catalog event: upload id is empty")
	}
	payload, err := json.Marshal(catalogUploadedEvent{UploadID: uploadID, PublishedAt: at.UTC()})
	if err != nil {
		return nil, fmt.Errorf("encode catalog event: %w", err)
	}
	return payload, nil
}

// decodeEvent also accepts a bare upload id, the format older publishers used.
func decodeEvent(data []byte) (catalogUploadedEvent, error) {
	raw := strings.TrimSpace(string(data))
	if raw == "" {
		return catalogUploadedEvent{}, fmt.Errorf("empty catalog event")
	}
	if !strings.HasPrefix(raw, "{") {
		return catalogUploadedEvent{UploadID: raw}, nil
	}

	var event catalogUploadedEvent
	if err := json.Unmarshal([]byte(raw), &event); err != nil {
		return catalogUploadedEvent{}, fmt.Errorf("decode catalog event: %w", err)
	}
	if strings.TrimSpace(event.UploadID) == "" {
		return catalogUploadedEvent{}, fmt.Errorf("catalog event without upload_id")
	}
	return event, nil
}
