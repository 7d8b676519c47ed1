package kafka

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	mu      sync.Mutex
	written []kafka.Message
	closed  bool
}

func (f *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.written = append(f.written, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func quietLog() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestProducer_EveryAcceptedMessageIsWritten(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, 4, quietLog())
	p.Start(context.Background())

	var (
		accepted int64
		wg       sync.WaitGroup
	)
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := p.Publish([]byte(fmt.Sprint(i)), []byte("v")); err == nil {
				atomic.AddInt64(&accepted, 1)
			} else {
				assert.ErrorIs(t, err, ErrClosed)
			}
		}(i)
		if i == 100 {
			go p.Close()
		}
	}
	wg.Wait()
	p.Close()
	p.WaitClosed()

	w.mu.Lock()
	defer w.mu.Unlock()
	assert.Len(t, w.written, int(atomic.LoadInt64(&accepted)))
	assert.True(t, w.closed)
}

func TestProducer_PublishAfterClose(t *testing.T) {
	p := newProducer(&fakeWriter{}, 1, quietLog())
	p.Start(context.Background())
	p.Close()
	p.Close()
	p.WaitClosed()

	assert.ErrorIs(t, p.Publish([]byte("k"), []byte("v")), ErrClosed)
}

func TestProducer_ContextCancelFlushes(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, 8, quietLog())
	ctx, cancel := context.WithCancel(context.Background())
	p.Start(ctx)

	require.NoError(t, p.Publish([]byte("k"), []byte("v1")))
	require.NoError(t, p.Publish([]byte("k"), []byte("v2")))
	cancel()
	p.WaitClosed()

	w.mu.Lock()
	assert.Len(t, w.written, 2)
	w.mu.Unlock()
	assert.ErrorIs(t, p.Publish([]byte("k"), []byte("v3")), ErrClosed)
}
