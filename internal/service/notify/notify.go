// Package notify delivers finalized invoice payloads to the external
// document-generation webhook. Delivery is decoupled from the invoice
// transaction: the invoice is the source of truth, a failed notification is
// logged and the document can be regenerated later.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"fieldcrm-billing/internal/service/invoice"
)

type Worker struct {
	url  string
	http *http.Client
	log  *slog.Logger

	jobs    chan invoice.DocumentPayload
	stopCtx context.Context
	stop    context.CancelFunc
	wg      sync.WaitGroup
}

func NewWorker(log *slog.Logger, webhookURL string, queueSize int) *Worker {
	if queueSize <= 0 {
		queueSize = 64
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		url:     webhookURL,
		http:    &http.Client{Timeout: 10 * time.Second},
		log:     log,
		jobs:    make(chan invoice.DocumentPayload, queueSize),
		stopCtx: ctx,
		stop:    cancel,
	}
}

func (w *Worker) Start() {
	w.wg.Add(1)
	go w.run()
}

// Stop drains nothing: pending jobs are dropped, which is acceptable since
// documents can be regenerated from the stored invoice.
func (w *Worker) Stop() {
	w.stop()
	w.wg.Wait()
}

// Enqueue never blocks. A full queue reports false and the caller logs the
// dropped job.
func (w *Worker) Enqueue(p invoice.DocumentPayload) bool {
	select {
	case w.jobs <- p:
		return true
	default:
		return false
	}
}

func (w *Worker) run() {
	defer w.wg.Done()

	for {
		select {
		case <-w.stopCtx.Done():
			return
		case job := <-w.jobs:
			if err := w.send(job); err != nil {
				w.log.Error("document notification failed",
					slog.String("op", "service.notify.send"),
					slog.String("invoice_id", job.InvoiceID),
					slog.String("error", err.Error()))
			}
		}
	}
}

func (w *Worker) send(p invoice.DocumentPayload) error {
	if w.url == "" {
		return nil
	}

	body, err := json.Marshal(p)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(w.stopCtx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode > 299 {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("webhook returned %d: %s", resp.StatusCode, msg)
	}

	return nil
}
