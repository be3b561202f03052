package renderloop

import (
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/edgeflow/ledcore/internal/metrics"
	"github.com/edgeflow/ledcore/internal/sink"
)

// mailbox is the single-slot, latest-wins handoff between the render
// thread and a sink worker, per spec.md §5: "the render thread
// overwrites the mailbox ... the sink worker consumes at its own pace."
type mailbox struct {
	mu     sync.Mutex
	data   []byte
	has    bool
	notify chan struct{}
}

func newMailbox() *mailbox {
	return &mailbox{notify: make(chan struct{}, 1)}
}

// put overwrites any unconsumed frame with b.
func (m *mailbox) put(b []byte) {
	m.mu.Lock()
	m.data = b
	m.has = true
	m.mu.Unlock()

	select {
	case m.notify <- struct{}{}:
	default:
	}
}

// take returns the pending frame, if any, clearing the slot.
func (m *mailbox) take() ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.has {
		return nil, false
	}
	d := m.data
	m.has = false
	m.data = nil
	return d, true
}

// sinkWorker drains mb into s until stop fires, logging and counting a
// transient Submit error and moving on to the next frame (any reconnect
// happens inside s), and exiting (without closing s down further) once s
// reports SinkFatal: the mailbox keeps accepting frames so groups bound
// to it continue computing, but nothing reads them again (spec.md §7.5).
func sinkWorker(name string, s sink.Sink, mb *mailbox, m *metrics.Metrics, logger *zap.Logger, stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			if b, ok := mb.take(); ok {
				_ = s.Submit(b)
			}
			_ = s.Shutdown()
			return
		case <-mb.notify:
			b, ok := mb.take()
			if !ok {
				continue
			}
			if err := s.Submit(b); err != nil {
				m.RecordSinkDrop(name)
				var fatal *sink.ErrFatal
				if errors.As(err, &fatal) {
					logger.Error("sink permanently unavailable", zap.String("sink", name), zap.Error(err))
					return
				}
				logger.Warn("sink submit failed, dropping frame", zap.String("sink", name), zap.Error(err))
			}
		}
	}
}
