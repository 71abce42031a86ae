package receipt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-pos/internal/lock"
	"github.com/noah-isme/backend-pos/internal/obs"
	"github.com/noah-isme/backend-pos/internal/sales"
	"github.com/noah-isme/backend-pos/internal/settings"
)

func countPrint(result string) {
	if obs.ReceiptPrintTotal != nil {
		obs.ReceiptPrintTotal.WithLabelValues(result).Inc()
	}
}

// TypePrint is the asynq task type for printing one receipt.
const TypePrint = "receipt:print"

type printPayload struct {
	OrderNumber string `json:"orderNumber"`
}

// NewPrintTask builds the print task for an order. The payload carries only
// the order number; the worker re-reads the ledger so a retried task always
// prints the durable record.
func NewPrintTask(orderNumber string) (*asynq.Task, error) {
	data, err := json.Marshal(printPayload{OrderNumber: orderNumber})
	if err != nil {
		return nil, fmt.Errorf("marshal print payload: %w", err)
	}
	return asynq.NewTask(TypePrint, data, asynq.MaxRetry(5), asynq.Timeout(30*time.Second)), nil
}

// Enqueuer hands print jobs to the task queue. A nil Enqueuer drops jobs,
// which is the configured behavior when printing is disabled.
type Enqueuer struct {
	Client *asynq.Client
	Logger *zerolog.Logger
}

// Enqueue schedules a receipt print. Failures are logged, never returned:
// a sale must not fail because the print queue is down.
func (e *Enqueuer) Enqueue(ctx context.Context, orderNumber string) {
	if e == nil || e.Client == nil {
		return
	}
	task, err := NewPrintTask(orderNumber)
	if err != nil {
		e.log().Error().Err(err).Str("order_number", orderNumber).Msg("build print task")
		return
	}
	if _, err := e.Client.EnqueueContext(ctx, task); err != nil {
		e.log().Error().Err(err).Str("order_number", orderNumber).Msg("enqueue print task")
	}
}

func (e *Enqueuer) log() *zerolog.Logger {
	if e != nil && e.Logger != nil {
		return e.Logger
	}
	nop := zerolog.Nop()
	return &nop
}

// Printer consumes print tasks in the worker process. The Redis lock
// serializes jobs so two workers never interleave output on one printer.
type Printer struct {
	Sales    *sales.Recorder
	Settings *settings.Service
	Renderer Renderer
	Sink     Sink
	Locker   lock.Locker
	LockTTL  time.Duration
	Logger   zerolog.Logger
}

// HandlePrint renders and delivers one receipt.
func (p *Printer) HandlePrint(ctx context.Context, task *asynq.Task) error {
	var payload printPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("decode print payload: %w", asynq.SkipRetry)
	}
	rec, err := p.Sales.GetByOrderNumber(ctx, payload.OrderNumber)
	if err != nil {
		if errors.Is(err, sales.ErrNotFound) {
			p.Logger.Warn().Str("order_number", payload.OrderNumber).Msg("print task for unknown order")
			return fmt.Errorf("order %s not found: %w", payload.OrderNumber, asynq.SkipRetry)
		}
		return fmt.Errorf("load order %s: %w", payload.OrderNumber, err)
	}
	st, err := p.Settings.Get(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	if !st.PrinterEnabled {
		p.Logger.Debug().Str("order_number", payload.OrderNumber).Msg("printing disabled, dropping task")
		return nil
	}

	body := p.Renderer.Render(st, rec)
	ttl := p.LockTTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	err = p.Locker.WithLock(ctx, "lock:printer", ttl, func(ctx context.Context) error {
		return p.Sink.Print(ctx, body)
	})
	if err != nil {
		countPrint("error")
		return fmt.Errorf("print order %s: %w", payload.OrderNumber, err)
	}
	countPrint("ok")
	p.Logger.Info().Str("order_number", payload.OrderNumber).Msg("receipt printed")
	return nil
}
