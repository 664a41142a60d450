package batch

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jackzampolin/juris/internal/jobs"
	"github.com/jackzampolin/juris/internal/store"
	"github.com/jackzampolin/juris/internal/transform"
)

// DefaultDebounce is how long a raw file must stay quiet before it is
// transformed. Writers often produce several Write events per file.
const DefaultDebounce = 250 * time.Millisecond

// WatchEvent reports one document handled in watch mode.
type WatchEvent struct {
	File   string
	Result *transform.Result
	Err    error
}

// Watch transforms raw documents as they are created or rewritten in the
// input directory until ctx is cancelled. Only the transform phase runs;
// dedup, strip and escalation stay batch operations. The input store must
// be a directory.
func (r *Runner) Watch(ctx context.Context, debounce time.Duration, cb func(WatchEvent)) error {
	dir, ok := r.input.(*store.FS)
	if !ok {
		return fmt.Errorf("batch: watch needs a directory input store")
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()
	if err := w.Add(dir.Root()); err != nil {
		return fmt.Errorf("watch %s: %w", dir.Root(), err)
	}

	ctx, cancel := context.WithCancel(ctx)
	pool := jobs.NewCPUWorkerPool(jobs.CPUWorkerPoolConfig{
		Name:        "watch",
		Logger:      r.logger,
		WorkerCount: r.workers,
		Handler: func(ctx context.Context, unit *jobs.WorkUnit) (any, error) {
			return r.TransformOne(ctx, unit.Name)
		},
	})
	pool.Start(ctx)

	collected := make(chan struct{})
	go func() {
		defer close(collected)
		for wr := range pool.Results() {
			result, _ := wr.Value.(*transform.Result)
			if wr.Err != nil {
				r.logger.Warn("document failed", "file", wr.Unit.Name, "error", wr.Err)
			} else {
				r.logger.Info("document transformed", "file", wr.Unit.Name,
					"valid", result.Record.IsValid, "persisted", result.ShouldPersist())
			}
			if cb != nil {
				cb(WatchEvent{File: wr.Unit.Name, Result: result, Err: wr.Err})
			}
		}
	}()

	pending := make(map[string]*time.Timer)
	ready := make(chan string)
	defer func() {
		for _, t := range pending {
			t.Stop()
		}
		cancel()
		pool.Close()
		<-collected
	}()

	r.logger.Info("watching for raw documents", "dir", dir.Root(), "debounce", debounce)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("watch stopped")
			return nil

		case name := <-ready:
			delete(pending, name)
			if err := pool.Submit(ctx, &jobs.WorkUnit{ID: name, Name: name}); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			name := filepath.Base(ev.Name)
			// Dotfiles include the store's own temp files.
			if !strings.HasSuffix(name, ".json") || strings.HasPrefix(name, ".") {
				continue
			}
			if t, ok := pending[name]; ok {
				t.Reset(debounce)
				continue
			}
			pending[name] = time.AfterFunc(debounce, func() {
				select {
				case ready <- name:
				case <-ctx.Done():
				}
			})

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			r.logger.Error("watcher error", "error", watchErr)
		}
	}
}
