// Package connectivity reports network availability changes.
package connectivity

import (
	"context"
	"net"
	"sync"
	"time"

	"murmur/internal/observability"
)

// Status is the result of one probe.
type Status struct {
	Connected   bool
	HasInternet bool
}

// Probe checks the network once.
type Probe func(ctx context.Context) Status

// Observer polls a Probe and invokes callbacks when the status changes. The
// first probe after StartObserving always reports.
type Observer struct {
	probe    Probe
	interval time.Duration

	mu             sync.Mutex
	onConnected    func(hasInternet bool)
	onDisconnected func()
	current        *Status
	cancel         context.CancelFunc
	done           chan struct{}
}

// New observes by dialing addr over TCP every interval.
func New(addr string, interval time.Duration) *Observer {
	return NewWithProbe(DialProbe(addr, 3*time.Second), interval)
}

// NewWithProbe observes with a custom probe.
func NewWithProbe(probe Probe, interval time.Duration) *Observer {
	return &Observer{probe: probe, interval: interval}
}

// DialProbe reports connected with internet when a TCP connection to addr succeeds.
func DialProbe(addr string, timeout time.Duration) Probe {
	return func(ctx context.Context) Status {
		d := net.Dialer{Timeout: timeout}
		conn, err := d.DialContext(ctx, "tcp", addr)
		if err != nil {
			return Status{}
		}
		_ = conn.Close()
		return Status{Connected: true, HasInternet: true}
	}
}

// OnConnected sets the callback for transitions to connected.
func (o *Observer) OnConnected(fn func(hasInternet bool)) {
	o.mu.Lock()
	o.onConnected = fn
	o.mu.Unlock()
}

// OnDisconnected sets the callback for transitions to disconnected.
func (o *Observer) OnDisconnected(fn func()) {
	o.mu.Lock()
	o.onDisconnected = fn
	o.mu.Unlock()
}

// StartObserving begins polling until ctx is done or StopObserving is called.
// Calling it while already observing does nothing.
func (o *Observer) StartObserving(ctx context.Context) {
	o.mu.Lock()
	if o.cancel != nil {
		o.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	o.cancel = cancel
	o.done = make(chan struct{})
	done := o.done
	o.mu.Unlock()

	go o.run(ctx, done)
}

// StopObserving stops polling and waits for the poll loop to exit.
func (o *Observer) StopObserving() {
	o.mu.Lock()
	cancel, done := o.cancel, o.done
	o.cancel, o.done = nil, nil
	o.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Current returns the last reported status; ok is false before the first probe.
func (o *Observer) Current() (st Status, ok bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.current == nil {
		return Status{}, false
	}
	return *o.current, true
}

func (o *Observer) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	var last *Status
	check := func() {
		st := o.probe(ctx)
		if ctx.Err() != nil {
			return
		}
		if last != nil && *last == st {
			return
		}
		last = &st
		o.report(ctx, st)
	}

	check()
	ticker := time.NewTicker(o.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			check()
		}
	}
}

func (o *Observer) report(ctx context.Context, st Status) {
	o.mu.Lock()
	o.current = &st
	onConnected, onDisconnected := o.onConnected, o.onDisconnected
	o.mu.Unlock()

	observability.GlobalLogger.DebugContext(ctx, "connectivity changed",
		"connected", st.Connected,
		"has_internet", st.HasInternet,
	)
	if st.Connected {
		if onConnected != nil {
			onConnected(st.HasInternet)
		}
		return
	}
	if onDisconnected != nil {
		onDisconnected()
	}
}
