package kafka

import (
	"context"
	"github.com/cenkalti/backoff/v5"
	"github.com/segmentio/kafka-go"
	"log/slog"
	"sync"
	"time"
)

// Handler harus return nil hanya jika proses sukses & boleh commit offset.
// Error apa pun membuat pesan yang sama dicoba ulang.
type Handler func(ctx context.Context, m kafka.Message) error

type reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Consumer struct {
	r       reader
	workers int
	retry   func() backoff.BackOff
	log     *slog.Logger
}

func NewConsumer(brokers []string, group, topic string, workers int, log *slog.Logger) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		GroupID:        group,
		Topic:          topic,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0, // manual commit
	})
	if log == nil {
		log = slog.Default()
	}
	return newConsumer(r, workers, log.With("component", "kafka-consumer", "topic", topic, "group", group))
}

func newConsumer(r reader, workers int, log *slog.Logger) *Consumer {
	if workers <= 0 {
		workers = 1
	}
	return &Consumer{r: r, workers: workers, retry: defaultBackOff, log: log}
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	return b
}

// Start dispatches each partition to one worker lane. A lane handles its
// messages in offset order and retries a failing one in place, so a commit
// never moves past a message that has not succeeded.
func (c *Consumer) Start(ctx context.Context, h Handler) error {
	defer c.r.Close()

	lanes := make([]chan kafka.Message, c.workers)
	var wg sync.WaitGroup

	// workers
	for i := range lanes {
		lanes[i] = make(chan kafka.Message, 128)
		wg.Add(1)
		go func(id int, jobs <-chan kafka.Message) {
			defer wg.Done()
			for m := range jobs {
				// shutdown: sisa pesan tidak diproses & tidak di-commit
				if ctx.Err() != nil {
					continue
				}
				c.process(ctx, id, h, m)
			}
		}(i, lanes[i])
	}
	stop := func() {
		for _, l := range lanes {
			close(l)
		}
		wg.Wait()
	}

	// dispatcher loop
	for {
		m, err := c.r.FetchMessage(ctx)
		if err != nil {
			stop()
			// kecilkan noise saat shutdown
			select {
			case <-ctx.Done():
				return nil
			default:
				return err
			}
		}
		select {
		case lanes[m.Partition%c.workers] <- m:
		case <-ctx.Done():
			stop()
			return nil
		}
	}
}

func (c *Consumer) process(ctx context.Context, id int, h Handler, m kafka.Message) {
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, h(ctx, m)
	},
		backoff.WithBackOff(c.retry()),
		backoff.WithMaxElapsedTime(0), // sampai sukses atau shutdown
		backoff.WithNotify(func(err error, next time.Duration) {
			c.log.Warn("handler failed, retrying",
				"worker", id, "partition", m.Partition, "offset", m.Offset, "retry_in", next, "err", err)
		}),
	)
	if err != nil {
		c.log.Warn("handler abandoned on shutdown, offset not committed",
			"worker", id, "partition", m.Partition, "offset", m.Offset, "err", err)
		return
	}
	// commit on success
	if err := c.r.CommitMessages(ctx, m); err != nil {
		c.log.Error("commit failed", "worker", id, "offset", m.Offset, "err", err)
	}
}
