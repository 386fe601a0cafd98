// Package sloghooks implements accessor.Hooks by logging to a *slog.Logger.
package sloghooks

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync/atomic"

	"github.com/unkn0wn-root/accessor"
)

type Options struct {
	// Sampling to avoid floods on hot paths; 0/1 = log all.
	ReadThroughEvery uint64
	ConflictEvery    uint64
	// Optional key redactor for SelfHeal. Defaults to SHA-256 prefix.
	Redact func(string) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	readThroughCtr atomic.Uint64
	conflictCtr    atomic.Uint64
}

var _ accessor.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(k string) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(k)
	}
	sum := sha256.Sum256([]byte(k))
	return hex.EncodeToString(sum[:8])
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) ReadThrough(name, reason string) {
	if h.l == nil || !sample(h.opts.ReadThroughEvery, &h.readThroughCtr) {
		return
	}
	h.l.Debug("accessor.read_through", "name", name, "reason", reason)
}

func (h *Hooks) ReadFailed(name string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("accessor.read_failed", "name", name, "err", err)
}

func (h *Hooks) WriteFailed(name string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("accessor.write_failed", "name", name, "err", err, "cache_ahead", true)
}

func (h *Hooks) PushEmpty(name string) {
	if h.l == nil {
		return
	}
	h.l.Debug("accessor.push_empty", "name", name)
}

func (h *Hooks) MutateConflict(name string, attempt int) {
	if h.l == nil || !sample(h.opts.ConflictEvery, &h.conflictCtr) {
		return
	}
	h.l.Info("accessor.mutate_conflict", "name", name, "attempt", attempt)
}

func (h *Hooks) SelfHeal(key, reason string) {
	if h.l == nil {
		return
	}
	h.l.Warn("accessor.self_heal", "key", h.redact(key), "reason", reason)
}
