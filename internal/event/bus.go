package event

import (
	"log/slog"
	"sync"
)

type HandlerFunc func(raw any)

type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]HandlerFunc
	wg       sync.WaitGroup
}

func NewBus() *Bus {
	return &Bus{
		handlers: make(map[string][]HandlerFunc),
	}
}

func (b *Bus) Subscribe(eventName string, handler HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventName] = append(b.handlers[eventName], handler)
}

// Publish runs every handler for eventName in subscription order before
// returning. Simulation code relies on this ordering to stay deterministic.
func (b *Bus) Publish(eventName string, evt any) {
	for _, handler := range b.snapshot(eventName) {
		b.call(eventName, handler, evt)
	}
}

// PublishAsync fans the event out on one goroutine per handler. Wait blocks
// until those goroutines finish.
func (b *Bus) PublishAsync(eventName string, evt any) {
	for _, handler := range b.snapshot(eventName) {
		b.wg.Add(1)
		go func(h HandlerFunc) {
			defer b.wg.Done()
			b.call(eventName, h, evt)
		}(handler)
	}
}

func (b *Bus) Wait() {
	b.wg.Wait()
}

func (b *Bus) snapshot(eventName string) []HandlerFunc {
	b.mu.RLock()
	defer b.mu.RUnlock()
	handlers := make([]HandlerFunc, len(b.handlers[eventName]))
	copy(handlers, b.handlers[eventName])
	return handlers
}

func (b *Bus) call(eventName string, h HandlerFunc, evt any) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Event handler panicked", "event", eventName, "panic", r)
		}
	}()
	h(evt)
}
