package split

import (
	"go.uber.org/zap"

	"dataset-splitter/internal/diff"
	"dataset-splitter/internal/sortutil"
)

// maxDriftBytes bounds the manifest sizes rendered as patches.
const maxDriftBytes = 4 << 20

// Drift is one manifest that changed since the previous run.
type Drift struct {
	Manifest string
	Added    int
	Removed  int
	Oversize bool
	Patch    string
}

// Compare compares two manifest snapshots keyed by file name and returns the
// manifests whose content differs, in name order. Manifests present on one
// side only are diffed against an empty file.
func Compare(previous, current map[string][]byte) []Drift {
	names := make(map[string]struct{}, len(previous)+len(current))
	for n := range previous {
		names[n] = struct{}{}
	}
	for n := range current {
		names[n] = struct{}{}
	}
	var out []Drift
	for _, n := range sortutil.SortedKeys(names) {
		patch, oversize := diff.Unified(n, previous[n], current[n], diff.Options{MaxBytes: maxDriftBytes})
		if patch == "" {
			continue
		}
		added, removed := diff.Stat(patch)
		out = append(out, Drift{Manifest: n, Added: added, Removed: removed, Oversize: oversize, Patch: patch})
	}
	return out
}

func logDrift(log *zap.Logger, drift []Drift) {
	if len(drift) == 0 {
		log.Info("manifests unchanged since previous run")
		return
	}
	for _, d := range drift {
		log.Info("manifest changed since previous run",
			zap.String("manifest", d.Manifest),
			zap.Int("added", d.Added),
			zap.Int("removed", d.Removed),
		)
		log.Debug("manifest diff", zap.String("manifest", d.Manifest), zap.String("patch", d.Patch))
	}
}
