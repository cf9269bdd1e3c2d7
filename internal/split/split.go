// Package split runs a complete dataset split: it checks the class folders,
// resets the output workspace, then for each class enumerates samples, builds
// the deduplicated pool, plans the partitions, copies the files and writes
// the manifests. Classes run concurrently once the reset has finished.
package split

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"dataset-splitter/internal/config"
	"dataset-splitter/internal/manifest"
	"dataset-splitter/internal/materialize"
	"dataset-splitter/internal/plan"
	"dataset-splitter/internal/pool"
	"dataset-splitter/internal/record"
	"dataset-splitter/internal/walkwalk"
	"dataset-splitter/internal/workspace"
	"dataset-splitter/internal/ziputil"
)

// Options carries the collaborators of Run. Zero values are usable.
type Options struct {
	Logger *zap.Logger
	Now    func() time.Time
	NewID  func() string
}

// PartitionSummary reports one (class, partition) result.
type PartitionSummary struct {
	Name     string
	Count    int
	Manifest string
}

// ClassSummary reports one class.
type ClassSummary struct {
	Class      string
	Canonical  int
	Augmented  int
	Shadowed   int
	PoolSize   int
	Partitions []PartitionSummary
}

// Summary is the outcome of a successful run.
type Summary struct {
	RunID          string
	SplitID        string
	Classes        []ClassSummary
	Drift          []Drift
	FirstRun       bool
	Archive        string
	ArchiveEntries int
}

type classResult struct {
	summary ClassSummary
	written []manifest.Written
	copied  []materialize.Copied
}

// Run executes the split described by cfg. It either completes fully or
// returns the first error; a missing canonical folder is reported before
// anything is deleted or written.
func Run(ctx context.Context, cfg *config.Config, opt Options) (*Summary, error) {
	log := opt.Logger
	if log == nil {
		log = zap.NewNop()
	}
	now := opt.Now
	if now == nil {
		now = time.Now
	}
	newID := opt.NewID
	if newID == nil {
		newID = uuid.NewString
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	for _, class := range cfg.ClassNames {
		if err := walkwalk.CheckFolder(canonicalFolder(cfg, class)); err != nil {
			return nil, err
		}
	}

	previous, err := manifest.Snapshot(cfg.OutputManifestRoot)
	if err != nil {
		return nil, fmt.Errorf("read previous manifests: %w", err)
	}

	layout := workspace.Layout{
		ManifestRoot: cfg.OutputManifestRoot,
		SampleRoot:   cfg.OutputSampleRoot,
		Partitions:   cfg.PartitionNames(),
		Classes:      cfg.ClassNames,
		Protected:    []string{cfg.ClassDir(cfg.ClassNames[0]), cfg.ClassDir(cfg.ClassNames[1])},
	}
	log.Warn("clearing previous split output",
		zap.String("manifest_root", layout.ManifestRoot),
		zap.String("sample_root", layout.SampleRoot),
	)
	if err := workspace.Reset(layout); err != nil {
		return nil, err
	}

	results := make([]classResult, len(cfg.ClassNames))
	g, gctx := errgroup.WithContext(ctx)
	for i, class := range cfg.ClassNames {
		g.Go(func() error {
			res, err := runClass(gctx, cfg, class, log.With(zap.String("class", class)))
			if err != nil {
				return fmt.Errorf("class %s: %w", class, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		// leave empty roots rather than a half-written split
		if rerr := workspace.Reset(layout); rerr != nil {
			return nil, errors.Join(err, rerr)
		}
		log.Warn("split aborted, output cleared", zap.Error(err))
		return nil, err
	}

	sum := &Summary{RunID: newID(), FirstRun: len(previous) == 0}
	var written []manifest.Written
	for _, r := range results {
		sum.Classes = append(sum.Classes, r.summary)
		written = append(written, r.written...)
	}
	sum.SplitID = manifest.SplitID(written)

	rec := buildRecord(cfg, sum, results, now())
	if err := record.Save(cfg.OutputManifestRoot, rec); err != nil {
		return nil, fmt.Errorf("save run record: %w", err)
	}

	if !sum.FirstRun {
		current, err := manifest.Snapshot(cfg.OutputManifestRoot)
		if err != nil {
			return nil, fmt.Errorf("read manifests: %w", err)
		}
		sum.Drift = Compare(previous, current)
		logDrift(log, sum.Drift)
	}

	if cfg.Archive != "" {
		n, err := ziputil.WriteTree(cfg.Archive, []ziputil.Tree{
			{Dir: cfg.OutputManifestRoot, Prefix: "manifests"},
			{Dir: cfg.OutputSampleRoot, Prefix: "samples"},
		})
		if err != nil {
			return nil, fmt.Errorf("write archive %s: %w", cfg.Archive, err)
		}
		sum.Archive, sum.ArchiveEntries = cfg.Archive, n
		log.Info("wrote archive", zap.String("path", cfg.Archive), zap.Int("entries", n))
	}

	log.Info("split complete",
		zap.String("run_id", sum.RunID),
		zap.String("split_id", sum.SplitID),
		zap.Int("drifted_manifests", len(sum.Drift)),
	)
	return sum, nil
}

func runClass(ctx context.Context, cfg *config.Config, class string, log *zap.Logger) (classResult, error) {
	canonical, err := walkwalk.Enumerate(canonicalFolder(cfg, class))
	if err != nil {
		return classResult{}, err
	}
	augmented, err := walkwalk.Enumerate(walkwalk.Folder{
		Class:  class,
		Dir:    cfg.AugmentedDir(class),
		Source: walkwalk.Augmented,
		Exts:   cfg.ExtensionSet(),
	})
	if err != nil {
		return classResult{}, err
	}

	p := pool.Build(class, canonical, augmented)
	log.Info("built sample pool",
		zap.Int("canonical", len(canonical)),
		zap.Int("augmented", len(augmented)),
		zap.Int("shadowed", p.Shadowed),
		zap.Int("pool", p.Len()),
	)
	if cfg.Shuffle {
		plan.Shuffle(p, cfg.Seed)
	}

	a := plan.Assign(p, cfg.Partitions)

	copied, err := materialize.Copy(ctx, a, materialize.Options{
		SampleRoot: cfg.OutputSampleRoot,
		Workers:    cfg.CopyWorkers,
		Logger:     log,
	})
	if err != nil {
		return classResult{}, err
	}

	written, err := manifest.Write(cfg.OutputManifestRoot, a)
	if err != nil {
		return classResult{}, err
	}

	cs := ClassSummary{
		Class:     class,
		Canonical: len(canonical),
		Augmented: len(augmented),
		Shadowed:  p.Shadowed,
		PoolSize:  p.Len(),
	}
	for _, w := range written {
		cs.Partitions = append(cs.Partitions, PartitionSummary{Name: w.Partition, Count: len(w.Names), Manifest: w.Path})
		log.Debug("wrote manifest", zap.String("partition", w.Partition), zap.String("path", w.Path))
	}
	return classResult{summary: cs, written: written, copied: copied}, nil
}

func canonicalFolder(cfg *config.Config, class string) walkwalk.Folder {
	return walkwalk.Folder{
		Class:  class,
		Dir:    cfg.ClassDir(class),
		Source: walkwalk.Canonical,
		Exts:   cfg.ExtensionSet(),
	}
}

func buildRecord(cfg *config.Config, sum *Summary, results []classResult, created time.Time) *record.Record {
	rec := &record.Record{
		RunID:      sum.RunID,
		Created:    created.UTC().Format(time.RFC3339),
		SplitID:    sum.SplitID,
		Shuffle:    cfg.Shuffle,
		Seed:       cfg.Seed,
		SampleRoot: cfg.OutputSampleRoot,
	}
	for _, r := range results {
		rc := record.Class{Name: r.summary.Class, Shadowed: r.summary.Shadowed}
		byPartition := make(map[string][]record.File, len(r.written))
		for _, c := range r.copied {
			byPartition[c.Partition] = append(byPartition[c.Partition], record.File{
				Name:   c.Name,
				Source: c.Source,
				Origin: c.Origin.String(),
				Size:   c.Size,
				SHA256: c.SHA256Hex,
			})
		}
		for _, w := range r.written {
			files := byPartition[w.Partition]
			if files == nil {
				files = []record.File{}
			}
			rc.Partitions = append(rc.Partitions, record.Partition{
				Name:     w.Partition,
				Manifest: manifest.FileName(w.Class, w.Partition),
				Files:    files,
			})
		}
		rec.Classes = append(rec.Classes, rc)
	}
	return rec
}
