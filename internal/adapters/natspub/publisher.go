package natspub

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/restartfu/corepanel/internal/clock"
	"github.com/restartfu/corepanel/internal/domain"
	"github.com/restartfu/corepanel/internal/observability"
	"github.com/samber/lo"
)

const (
	StatusUp   = "up"
	StatusDown = "down"
)

// Conn is the part of *nats.Conn the publisher needs.
type Conn interface {
	Publish(subject string, data []byte) error
	Drain() error
}

// Connect dials NATS with reconnects kept on for the life of the process.
func Connect(url string) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.Name("corepanel"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", url, err)
	}
	return conn, nil
}

// Publisher pushes the panel to a subject on a fixed cadence and sends one
// final "down" message when stopped.
type Publisher struct {
	conn      Conn
	subject   string
	host      string
	snapshot  func() domain.Panel
	scheduler clock.Scheduler
	interval  time.Duration
	logger    *log.Logger

	mu      sync.Mutex
	stop    func()
	stopped bool
	sent    int
}

func NewPublisher(conn Conn, subject string, snapshot func() domain.Panel, scheduler clock.Scheduler, interval time.Duration, logger *log.Logger) *Publisher {
	if logger == nil {
		logger = log.Default()
	}
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	return &Publisher{
		conn:      conn,
		subject:   subject,
		host:      host,
		snapshot:  snapshot,
		scheduler: scheduler,
		interval:  interval,
		logger:    logger,
	}
}

func (p *Publisher) Start() {
	stop := p.scheduler.Every(p.interval, func() { p.publish(StatusUp) })
	p.mu.Lock()
	p.stop = stop
	p.mu.Unlock()
}

// Stop cancels the schedule, publishes the down status and drains the
// connection. Calling it again does nothing.
func (p *Publisher) Stop() {
	p.mu.Lock()
	stop := p.stop
	p.mu.Unlock()
	if stop != nil {
		stop()
	}

	p.publish(StatusDown)

	p.mu.Lock()
	already := p.stopped
	p.stopped = true
	p.mu.Unlock()
	if already {
		return
	}
	if err := p.conn.Drain(); err != nil {
		p.logger.Printf("nats drain: %v", err)
	}
}

func (p *Publisher) Sent() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sent
}

func (p *Publisher) publish(status string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return
	}

	data, err := Encode(p.host, status, p.snapshot())
	if err != nil {
		p.logger.Printf("encode panel: %v", err)
		return
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		p.logger.Printf("publish %s: %v", p.subject, err)
		observability.CaptureError(err, map[string]string{
			"component": "nats",
			"operation": "publish",
		}, map[string]interface{}{
			"subject": p.subject,
			"status":  status,
		})
		return
	}
	p.sent++
}

type message struct {
	Host      string        `json:"host"`
	Status    string        `json:"status"`
	CPUModel  string        `json:"cpu_model"`
	AMD       bool          `json:"is_amd_vendor"`
	OSSummary string        `json:"os_summary"`
	Cores     []coreMessage `json:"cores"`
	Time      time.Time     `json:"time"`
}

type coreMessage struct {
	Index     int    `json:"index"`
	Frequency string `json:"frequency"`
	Governor  string `json:"governor"`
	Online    bool   `json:"online"`
}

func Encode(host, status string, panel domain.Panel) ([]byte, error) {
	return json.Marshal(message{
		Host:      host,
		Status:    status,
		CPUModel:  panel.Identity.CPUModel,
		AMD:       panel.Identity.IsAMDVendor,
		OSSummary: panel.Identity.OSSummary,
		Cores: lo.Map(panel.Cores, func(c domain.CoreState, _ int) coreMessage {
			return coreMessage{
				Index:     c.Index,
				Frequency: c.FrequencyLabel,
				Governor:  c.GovernorSymbol,
				Online:    c.IsOnline,
			}
		}),
		Time: panel.Time,
	})
}
