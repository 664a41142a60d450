// Package transfer moves corpus files between local directories and the
// remote bucket.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"golang.org/x/sync/errgroup"

	"github.com/jackzampolin/juris/internal/store"
)

const (
	DefaultParallel   = 10
	DefaultRetries    = 3
	defaultRetryDelay = time.Second
)

// SyncConfig configures a download of raw documents.
type SyncConfig struct {
	Source     store.Store
	Dest       store.Store
	Parallel   int
	Retries    int // Retries after the first attempt
	RetryDelay time.Duration
	DryRun     bool
	Logger     *slog.Logger
}

// SyncResult summarizes a sync.
type SyncResult struct {
	Remote     int      `json:"remote"`
	Present    int      `json:"present"`
	Downloaded int      `json:"downloaded"`
	Failed     []string `json:"failed"`
	Pending    []string `json:"pending,omitempty"` // Only filled on dry runs
}

// Sync copies every .json document of Source that Dest does not hold yet.
// Existing files are never overwritten. A file that keeps failing is
// reported and does not stop the others.
func Sync(ctx context.Context, cfg SyncConfig) (SyncResult, error) {
	var result SyncResult
	if cfg.Source == nil || cfg.Dest == nil {
		return result, fmt.Errorf("transfer: source and destination are required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "sync")
	parallel := cfg.Parallel
	if parallel <= 0 {
		parallel = DefaultParallel
	}
	retries := cfg.Retries
	if retries < 0 {
		retries = 0
	}
	delay := cfg.RetryDelay
	if delay <= 0 {
		delay = defaultRetryDelay
	}

	remote, err := cfg.Source.List(ctx)
	if err != nil {
		return result, fmt.Errorf("list remote: %w", err)
	}
	local, err := cfg.Dest.List(ctx)
	if err != nil {
		return result, fmt.Errorf("list local: %w", err)
	}
	have := make(map[string]bool, len(local))
	for _, name := range local {
		have[name] = true
	}

	var missing []string
	for _, name := range remote {
		if !strings.HasSuffix(name, ".json") {
			continue
		}
		result.Remote++
		if have[name] {
			result.Present++
			continue
		}
		missing = append(missing, name)
	}
	logger.Info("sync planned", "remote", result.Remote, "present", result.Present, "missing", len(missing))

	if cfg.DryRun {
		result.Pending = missing
		return result, nil
	}

	var mu sync.Mutex
	g := new(errgroup.Group)
	g.SetLimit(parallel)
	for _, name := range missing {
		g.Go(func() error {
			err := download(ctx, cfg.Source, cfg.Dest, name, retries, delay, logger)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				logger.Warn("download failed", "file", name, "error", err)
				result.Failed = append(result.Failed, name)
				return nil
			}
			result.Downloaded++
			return nil
		})
	}
	_ = g.Wait()
	sort.Strings(result.Failed)

	logger.Info("sync complete", "downloaded", result.Downloaded, "failed", len(result.Failed))
	return result, ctx.Err()
}

func download(ctx context.Context, src, dst store.Store, name string, retries int, delay time.Duration, logger *slog.Logger) error {
	return retry.Do(
		func() error {
			data, err := src.Read(ctx, name)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return retry.Unrecoverable(err)
				}
				return err
			}
			return dst.Write(ctx, name, data)
		},
		retry.Context(ctx),
		retry.Attempts(uint(retries)+1),
		retry.Delay(delay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			logger.Debug("retrying download", "file", name, "attempt", n+1, "error", err)
		}),
	)
}
