package kafka

import (
	"context"
	"errors"
	"github.com/segmentio/kafka-go"
	"log/slog"
	"sync"
	"time"
)

var ErrClosed = errors.New("kafka: producer closed")

// Publisher is what domain code depends on; *Producer implements it.
type Publisher interface {
	Publish(key, value []byte, headers ...kafka.Header) error
}

type writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Producer struct {
	w       writer
	inbox   chan kafka.Message
	stop    chan struct{}
	closeCh chan struct{}
	mu      sync.RWMutex // closed hanya berubah saat tidak ada Publish yang sedang kirim
	closed  bool
	log     *slog.Logger
}

func NewProducer(brokers []string, topic string, buf int, log *slog.Logger) *Producer {
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "kafka-producer", "topic", topic)
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Async:        true, // fire-and-forget untuk throughput; error dilaporkan lewat Completion
		Completion: func(msgs []kafka.Message, err error) {
			if err != nil {
				log.Error("write failed", "messages", len(msgs), "err", err)
			}
		},
	}
	return newProducer(w, buf, log)
}

func newProducer(w writer, buf int, log *slog.Logger) *Producer {
	return &Producer{
		w:       w,
		inbox:   make(chan kafka.Message, buf),
		stop:    make(chan struct{}),
		closeCh: make(chan struct{}),
		log:     log,
	}
}

func (p *Producer) Start(ctx context.Context) {
	go func() {
		defer close(p.closeCh)
		defer func() { _ = p.w.Close() }()
		done := ctx.Done()
		for {
			select {
			case <-done:
				// Close menunggu Publish yang sedang kirim; inbox tetap dibaca sampai stop ditutup
				go p.Close()
				done = nil
			case <-p.stop:
				p.drain()
				return
			case m := <-p.inbox:
				p.write(m)
			}
		}
	}()
}

// flush sisa pesan sebelum exit
func (p *Producer) drain() {
	for {
		select {
		case m := <-p.inbox:
			p.write(m)
		default:
			return
		}
	}
}

func (p *Producer) write(m kafka.Message) {
	if err := p.w.WriteMessages(context.Background(), m); err != nil {
		p.log.Error("enqueue failed", "key", string(m.Key), "err", err)
	}
}

func (p *Producer) Publish(key, value []byte, headers ...kafka.Header) error {
	m := kafka.Message{
		Key:     key,
		Value:   value,
		Time:    time.Now(),
		Headers: headers,
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}
	p.inbox <- m
	return nil
}

// Close minta goroutine nge-flush sisa pesan lalu exit rapi. Aman dipanggil berkali-kali.
// Setiap Publish yang return nil sudah ada di inbox sebelum stop ditutup.
func (p *Producer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	close(p.stop)
}

// Tunggu sampai goroutine selesai.
func (p *Producer) WaitClosed() { <-p.closeCh }
