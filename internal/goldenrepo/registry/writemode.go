// Copyright 2026 The Golden Repo Authors.
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// WriteModeOwner is the synthetic write-lock owner identity under which
// the scheduler and LifecycleManager.Start release the write-lock of an
// evicted write-mode session, per §4.5.7.
const WriteModeOwner = "mcp_write_mode"

// WriteModeMarkerTTL is how long a write-mode marker is honored before the
// scheduler considers the interactive session abandoned.
const WriteModeMarkerTTL = 30 * time.Minute

// writeModeMarker is the persisted shape of {root}/.write_mode/{alias}.json.
type writeModeMarker struct {
	EnteredAt time.Time `json:"entered_at"`
}

// WriteModeMarkers manages the {root}/.write_mode directory.
type WriteModeMarkers struct {
	dir string
}

// NewWriteModeMarkers returns a WriteModeMarkers rooted at root.
func NewWriteModeMarkers(root string) (*WriteModeMarkers, error) {
	dir := filepath.Join(root, ".write_mode")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create write-mode dir %s", dir)
	}
	return &WriteModeMarkers{dir: dir}, nil
}

func (w *WriteModeMarkers) path(alias string) string {
	return filepath.Join(w.dir, alias+".json")
}

// Enter records that alias has entered write mode at the current time.
func (w *WriteModeMarkers) Enter(alias string) error {
	data, err := json.Marshal(writeModeMarker{EnteredAt: time.Now()})
	if err != nil {
		return errors.Wrap(err, "marshal write-mode marker")
	}
	return os.WriteFile(w.path(alias), data, 0o644)
}

// Aliases lists every alias currently marked as in write mode.
func (w *WriteModeMarkers) Aliases() ([]string, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return nil, errors.Wrapf(err, "list write-mode markers in %s", w.dir)
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		out = append(out, strings.TrimSuffix(e.Name(), ".json"))
	}
	return out, nil
}

// EvictStaleMarkers removes every marker older than WriteModeMarkerTTL,
// releasing the corresponding write-lock as WriteModeOwner. To avoid a
// race with a session that refreshed its marker moments ago, each
// candidate is re-read immediately before deletion (time-of-check /
// time-of-use) rather than trusting the directory listing's snapshot.
//
// releaseLock is called for every evicted alias so the caller's
// write-lock manager can release the lock under the synthetic owner.
func (w *WriteModeMarkers) EvictStaleMarkers(releaseLock func(alias string)) error {
	aliases, err := w.Aliases()
	if err != nil {
		return err
	}
	for _, alias := range aliases {
		marker, ok, err := w.read(alias)
		if err != nil || !ok {
			continue
		}
		if time.Since(marker.EnteredAt) < WriteModeMarkerTTL {
			continue
		}
		// Re-read immediately before deleting: a session may have
		// refreshed this marker between Aliases() and now.
		marker, ok, err = w.read(alias)
		if err != nil || !ok {
			continue
		}
		if time.Since(marker.EnteredAt) < WriteModeMarkerTTL {
			continue
		}
		if err := os.Remove(w.path(alias)); err != nil && !os.IsNotExist(err) {
			continue
		}
		releaseLock(alias)
	}
	return nil
}

// EvictAll force-evicts every marker unconditionally, releasing every
// corresponding write-lock. Called once on process startup: no
// interactive write-mode session survives a server restart, so any marker
// present at startup is definitively orphaned.
func (w *WriteModeMarkers) EvictAll(releaseLock func(alias string)) error {
	aliases, err := w.Aliases()
	if err != nil {
		return err
	}
	for _, alias := range aliases {
		if err := os.Remove(w.path(alias)); err != nil && !os.IsNotExist(err) {
			continue
		}
		releaseLock(alias)
	}
	return nil
}

func (w *WriteModeMarkers) read(alias string) (writeModeMarker, bool, error) {
	data, err := os.ReadFile(w.path(alias))
	if err != nil {
		if os.IsNotExist(err) {
			return writeModeMarker{}, false, nil
		}
		return writeModeMarker{}, false, err
	}
	var m writeModeMarker
	if err := json.Unmarshal(data, &m); err != nil {
		return writeModeMarker{}, false, nil
	}
	return m, true, nil
}
