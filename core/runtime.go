package turntaking

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/tandemvoice/tandem-core/core/events"
)

const engineEventQueueCapacity = 16

// eventEmitter publishes an event onto the engine's serialized queue.
// Components never mutate engine state directly; they emit.
type eventEmitter func(event events.Event)

func noopEventEmitter(events.Event) {}

type queuedEvent struct {
	event    events.Event
	queuedAt time.Time
}

// engineRuntime serializes all state transitions onto a single goroutine.
// Callers from arbitrary goroutines enqueue; exactly one loop drains the
// queue and applies events in arrival order.
type engineRuntime struct {
	queue   chan queuedEvent
	closeCh chan struct{}
	done    chan struct{}

	startOnce sync.Once
	endOnce   sync.Once

	started atomic.Bool
}

func newEngineRuntime() *engineRuntime {
	return &engineRuntime{
		queue:   make(chan queuedEvent, engineEventQueueCapacity),
		closeCh: make(chan struct{}),
		done:    make(chan struct{}),
	}
}

func (runtime *engineRuntime) start(process func(event events.Event, queuedAt time.Time)) (started bool) {
	if runtime == nil || runtime.isClosed() {
		return false
	}

	runtime.startOnce.Do(func() {
		if runtime.isClosed() {
			return
		}

		started = true
		runtime.started.Store(true)
		go func() {
			defer close(runtime.done)

			for {
				select {
				case <-runtime.closeCh:
					return
				case item := <-runtime.queue:
					if runtime.isClosed() {
						return
					}
					process(item.event, item.queuedAt)
				}
			}
		}()
	})

	return started
}

func (runtime *engineRuntime) end() {
	if runtime == nil {
		return
	}

	runtime.endOnce.Do(func() {
		close(runtime.closeCh)
	})
}

func (runtime *engineRuntime) awaitCompletion() {
	if runtime == nil {
		return
	}

	if runtime.started.Load() {
		<-runtime.done
	}
}

func (runtime *engineRuntime) enqueue(event events.Event) bool {
	if runtime == nil || runtime.isClosed() {
		return false
	}

	item := queuedEvent{event: event, queuedAt: time.Now()}
	select {
	case <-runtime.closeCh:
		return false
	case runtime.queue <- item:
		return true
	}
}

func (runtime *engineRuntime) isClosed() bool {
	if runtime == nil {
		return false
	}

	select {
	case <-runtime.closeCh:
		return true
	default:
		return false
	}
}

func (runtime *engineRuntime) queuedEventCount() int {
	if runtime == nil {
		return 0
	}

	return len(runtime.queue)
}
