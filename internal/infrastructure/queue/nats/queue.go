package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/OpenPecha/translation-workflow/internal/core/domain"
	"github.com/OpenPecha/translation-workflow/internal/infrastructure/resilience"
)

const workerQueueGroup = "workers"

// Queue carries batch submissions to workers and publishes committed
// results for downstream consumers.
type Queue struct {
	conn          *nats.Conn
	batchSubject  string
	resultSubject string
	executor      *resilience.Executor
	logger        *slog.Logger
}

type Options struct {
	ConnectTimeout       time.Duration
	ReconnectWait        time.Duration
	MaxReconnects        int
	RetryOnFailedConnect *bool
	ResultSubject        string
	ResilienceExecutor   *resilience.Executor
	Logger               *slog.Logger
}

func New(url, batchSubject string) (*Queue, error) {
	return NewWithOptions(url, batchSubject, Options{})
}

func NewWithOptions(url, batchSubject string, options Options) (*Queue, error) {
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
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	conn, err := nats.Connect(
		url,
		nats.Name("translation-workflow"),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.RetryOnFailedConnect(retryOnFailedConnect),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &Queue{
		conn:          conn,
		batchSubject:  batchSubject,
		resultSubject: options.ResultSubject,
		executor:      options.ResilienceExecutor,
		logger:        logger,
	}, nil
}

func (q *Queue) Close() {
	if q.conn != nil {
		q.conn.Close()
	}
}

func (q *Queue) PublishBatch(ctx context.Context, batch domain.BatchSubmission) error {
	return q.publishJSON(ctx, q.batchSubject, batch)
}

// Accept publishes a success record on <result subject>.accepted.
func (q *Queue) Accept(ctx context.Context, rec domain.SuccessRecord) error {
	if q.resultSubject == "" {
		return nil
	}
	return q.publishJSON(ctx, q.resultSubject+".accepted", rec)
}

// Reject publishes a failure record on <result subject>.failed.
func (q *Queue) Reject(ctx context.Context, rec domain.FailureRecord) error {
	if q.resultSubject == "" {
		return nil
	}
	return q.publishJSON(ctx, q.resultSubject+".failed", rec)
}

func (q *Queue) publishJSON(ctx context.Context, subject string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s message: %w", subject, err)
	}
	call := func(_ context.Context) error {
		if err := q.conn.Publish(subject, body); err != nil {
			return fmt.Errorf("nats publish %s: %w", subject, err)
		}
		return nil
	}

	if q.executor != nil {
		err = q.executor.Execute(ctx, "nats.publish", call, classifyNATSError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return wrapTemporaryIfNeeded(err)
	}
	return nil
}

// SubscribeBatches hands each batch to handler until ctx is done, then
// drains the subscription.
func (q *Queue) SubscribeBatches(ctx context.Context, handler func(context.Context, domain.BatchSubmission) error) error {
	sub, err := q.conn.QueueSubscribe(q.batchSubject, workerQueueGroup, func(msg *nats.Msg) {
		if errors.Is(ctx.Err(), context.Canceled) {
			return
		}

		batch, err := decodeBatch(msg.Data)
		if err != nil {
			q.logger.Error("drop malformed batch message", "subject", msg.Subject, "error", err)
			return
		}

		handlerCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		if err := handler(handlerCtx, batch); err != nil {
			q.logger.Error("batch handler error", "batch_id", batch.ID, "error", err)
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

func decodeBatch(data []byte) (domain.BatchSubmission, error) {
	var batch domain.BatchSubmission
	if err := json.Unmarshal(data, &batch); err != nil {
		return domain.BatchSubmission{}, domain.WrapError(domain.ErrInvalidInput, "decode batch", err)
	}
	if len(batch.Documents) == 0 {
		return domain.BatchSubmission{}, domain.WrapError(domain.ErrInvalidInput, "decode batch", errors.New("batch has no documents"))
	}
	return batch, nil
}
