package agent

import (
	"fmt"
	"path/filepath"

	"github.com/Leantar/fsobserver/models"
	"github.com/Leantar/fsobserver/modules/observer"
	"github.com/rs/zerolog/log"
)

// WatchConfig describes one watched path. Events lists the kind names to
// subscribe to; an empty list means all kinds. When Snapshot is set, the
// agent captures an FsObject of the changed entry for content-bearing
// events.
type WatchConfig struct {
	Path     string   `yaml:"path"`
	Events   []string `yaml:"events"`
	Snapshot bool     `yaml:"snapshot"`
}

type Config struct {
	LogLevel string        `yaml:"log_level"`
	Watches  []WatchConfig `yaml:"watches"`
}

// Agent turns configured watches into observers and reports their events
// as structured log records.
type Agent struct {
	conf      Config
	observers []*observer.Observer
	reporters []*reporter
}

func New(conf Config) *Agent {
	return &Agent{
		conf: conf,
	}
}

// Run starts every configured watch. On any failure it stops the watches
// already started and returns the error.
func (a *Agent) Run() error {
	for _, w := range a.conf.Watches {
		mask, err := observer.ParseMask(w.Events)
		if err != nil {
			a.Stop()
			return fmt.Errorf("invalid watch for %s: %w", w.Path, err)
		}

		r := newReporter(w)
		o := observer.New(w.Path, mask, r)
		if err := o.Start(); err != nil {
			r.close()
			a.Stop()
			return err
		}

		a.observers = append(a.observers, o)
		a.reporters = append(a.reporters, r)
		log.Info().Str("path", w.Path).Str("events", mask.String()).Msg("watching")
	}

	return nil
}

// Stop ends all watches. Safe to call more than once and after a failed
// Run.
func (a *Agent) Stop() {
	for _, o := range a.observers {
		o.Stop()
	}
	for _, r := range a.reporters {
		r.close()
	}
	a.observers = nil
	a.reporters = nil
}

// snapshotMask selects the events after which the changed entry still has
// content worth capturing.
const snapshotMask = observer.Create | observer.Modify | observer.CloseWrite |
	observer.MovedTo | observer.Attrib

// reporter receives the events of one watch. Handlers run on the shared
// dispatch goroutine and must not stall it, so events are handed off to
// the reporter's own goroutine, which does the logging and hashing.
type reporter struct {
	watch  WatchConfig
	events chan reportedEvent
	done   chan struct{}
}

type reportedEvent struct {
	mask observer.EventMask
	name string
}

func newReporter(w WatchConfig) *reporter {
	r := &reporter{
		watch:  w,
		events: make(chan reportedEvent, 64),
		done:   make(chan struct{}),
	}
	go r.run()

	return r
}

// OnEvent implements observer.Handler.
func (r *reporter) OnEvent(mask observer.EventMask, name string) {
	select {
	case r.events <- reportedEvent{mask: mask, name: name}:
	default:
		log.Warn().Str("path", r.watch.Path).Msg("event dropped, reporter is backlogged")
	}
}

func (r *reporter) close() {
	close(r.done)
}

func (r *reporter) run() {
	for {
		select {
		case ev := <-r.events:
			r.report(ev)
		case <-r.done:
			return
		}
	}
}

func (r *reporter) report(ev reportedEvent) {
	path := r.watch.Path
	if ev.name != "" {
		path = filepath.Join(r.watch.Path, ev.name)
	}

	rec := log.Info().Str("event", ev.mask.String()).Str("path", path)

	if r.watch.Snapshot && ev.mask&snapshotMask != 0 {
		obj, err := models.NewFsObject(path)
		if err != nil {
			log.Warn().Caller().Err(err).Msg("failed to snapshot changed path")
		} else {
			rec = rec.Object("fsobject", obj)
		}
	}

	rec.Msg("filesystem event")
}
