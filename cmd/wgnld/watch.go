package main

import (
	"context"
	"log"
	"reflect"
	"sync"
	"time"

	"github.com/Global19/wgnlpy"
	"github.com/Global19/wgnlpy/internal/config"
	"github.com/Global19/wgnlpy/net/ifctl"
)

// watcher polls the configured devices and fans state changes out to
// websocket subscribers.
type watcher struct {
	client *wgnlpy.Client

	mu   sync.Mutex
	last map[string]deviceState
	subs map[chan deviceState]struct{}
}

func newWatcher(client *wgnlpy.Client) *watcher {
	return &watcher{
		client: client,
		last:   make(map[string]deviceState),
		subs:   make(map[chan deviceState]struct{}),
	}
}

// subscribe registers a listener for state changes. The returned cancel
// function must be called when the listener goes away.
func (w *watcher) subscribe() (<-chan deviceState, func()) {
	ch := make(chan deviceState, 16)

	w.mu.Lock()
	w.subs[ch] = struct{}{}
	w.mu.Unlock()

	return ch, func() {
		w.mu.Lock()
		delete(w.subs, ch)
		w.mu.Unlock()
	}
}

// state returns the last polled state of one device.
func (w *watcher) state(name string) (deviceState, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	st, ok := w.last[name]
	return st, ok
}

func (w *watcher) names() []string {
	if len(config.Cfg.Interfaces) > 0 {
		return config.Cfg.Interfaces
	}

	names, err := ifctl.List()
	if err != nil {
		log.Printf("failed to list interfaces: %v", err)
		return nil
	}
	return names
}

func (w *watcher) poll() {
	for _, name := range w.names() {
		dev, err := w.client.Device(name, wgnlpy.DumpOptions{})
		if err != nil {
			log.Printf("failed to query %s: %v", name, err)
			continue
		}

		st := stateOf(dev)

		w.mu.Lock()
		changed := !reflect.DeepEqual(w.last[name], st)
		w.last[name] = st
		if changed {
			for ch := range w.subs {
				// Drop updates on slow subscribers rather than
				// stalling the poll loop.
				select {
				case ch <- st:
				default:
				}
			}
		}
		w.mu.Unlock()
	}
}

func (w *watcher) run(ctx context.Context) {
	interval := time.Duration(config.Cfg.PollInterval) * time.Second
	if interval <= 0 {
		interval = 5 * time.Second
	}

	t := time.NewTicker(interval)
	defer t.Stop()

	w.poll()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			w.poll()
		}
	}
}
