package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

var ErrQueueFull = errors.New("mail queue full")

type Message struct {
	To      string `json:"to"`
	From    string `json:"from"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
	HTML    string `json:"html,omitempty"`
}

type Worker struct {
	ID         int
	WorkerPool chan chan Message
	JobChannel chan Message
	Logger     *slog.Logger
}

func NewWorker(id int, workerPool chan chan Message, logger *slog.Logger) *Worker {
	return &Worker{
		ID:         id,
		WorkerPool: workerPool,
		JobChannel: make(chan Message),
		Logger:     logger,
	}
}

func (w *Worker) Start(ctx context.Context, wg *sync.WaitGroup, deliver func(Message)) {
	wg.Add(1)
	go func() {
		defer wg.Done()

		for {
			w.WorkerPool <- w.JobChannel

			select {
			case msg := <-w.JobChannel:
				w.Logger.Debug("worker delivering mail", "worker_id", w.ID, "to", msg.To)
				deliver(msg)
			case <-ctx.Done():
				w.Logger.Debug("mail worker shutting down", "worker_id", w.ID)
				return
			}
		}
	}()
}

type Config struct {
	APIURL      string
	APIKey      string
	From        string
	FrontendURL string
	Timeout     time.Duration
	MaxWorkers  int
	QueueSize   int
}

// Client delivers mail through an HTTP mail API from a fixed pool of workers.
// With no APIURL configured, messages are written to the log instead.
type Client struct {
	cfg        Config
	logger     *slog.Logger
	httpClient *http.Client

	jobQueue   chan Message
	workerPool chan chan Message
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	pending    sync.WaitGroup
	once       sync.Once
	mu         sync.RWMutex
	stopped    bool
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	ctx, cancel := context.WithCancel(context.Background())

	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = 4
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 100
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	c := &Client{
		cfg:        cfg,
		logger:     logger,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		jobQueue:   make(chan Message, cfg.QueueSize),
		workerPool: make(chan chan Message, cfg.MaxWorkers),
		ctx:        ctx,
		cancel:     cancel,
	}

	c.startWorkerPool()
	return c
}

func (c *Client) startWorkerPool() {
	c.once.Do(func() {
		for i := 0; i < c.cfg.MaxWorkers; i++ {
			worker := NewWorker(i, c.workerPool, c.logger)
			worker.Start(c.ctx, &c.wg, c.process)
		}

		c.wg.Add(1)
		go c.dispatch()

		c.logger.Info("mail worker pool started",
			"max_workers", c.cfg.MaxWorkers,
			"queue_size", cap(c.jobQueue),
			"api_configured", c.cfg.APIURL != "")
	})
}

func (c *Client) dispatch() {
	defer c.wg.Done()

	for {
		select {
		case msg := <-c.jobQueue:
			select {
			case jobChannel := <-c.workerPool:
				select {
				case jobChannel <- msg:
				case <-c.ctx.Done():
					c.pending.Done()
					return
				}
			case <-c.ctx.Done():
				c.pending.Done()
				return
			}
		case <-c.ctx.Done():
			c.logger.Info("mail dispatcher shutting down")
			return
		}
	}
}

// Send queues msg for delivery. It never blocks; a full queue is reported as ErrQueueFull.
func (c *Client) Send(msg Message) error {
	if msg.From == "" {
		msg.From = c.cfg.From
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.stopped {
		return errors.New("mail client is shut down")
	}

	c.pending.Add(1)
	select {
	case c.jobQueue <- msg:
		c.logger.Debug("mail queued", "to", msg.To, "subject", msg.Subject, "queue_length", len(c.jobQueue))
		return nil
	default:
		c.pending.Done()
		c.logger.Warn("mail queue full, dropping message", "to", msg.To, "queue_capacity", cap(c.jobQueue))
		return ErrQueueFull
	}
}

func (c *Client) process(msg Message) {
	defer c.pending.Done()

	if c.cfg.APIURL == "" {
		c.logger.Info("mail delivery (log only)", "to", msg.To, "subject", msg.Subject)
		c.logger.Debug("mail body (log only)", "to", msg.To, "body", msg.Text)
		return
	}

	if err := c.deliver(msg); err != nil {
		c.logger.Error("failed to deliver mail", "to", msg.To, "subject", msg.Subject, "error", err)
		return
	}
	c.logger.Info("mail delivered", "to", msg.To, "subject", msg.Subject)
}

func (c *Client) deliver(msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal mail: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create mail request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("mail API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("mail API returned status %d", resp.StatusCode)
	}
	return nil
}

// Shutdown stops accepting mail, waits for queued messages to be delivered and stops the workers.
func (c *Client) Shutdown() {
	c.logger.Info("shutting down mail client")

	c.mu.Lock()
	c.stopped = true
	c.mu.Unlock()

	c.pending.Wait()
	c.cancel()
	c.wg.Wait()
	c.logger.Info("mail client shutdown complete")
}
