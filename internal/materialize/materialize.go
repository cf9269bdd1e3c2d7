// Package materialize copies the samples of an assignment plan into the
// sample root as <root>/<partition>/<class>/<identifier>.
package materialize

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"dataset-splitter/internal/plan"
	"dataset-splitter/internal/walkwalk"
	"dataset-splitter/internal/workspace"
)

// Copied describes one materialized sample.
type Copied struct {
	Partition string
	Name      string
	Source    string
	Origin    walkwalk.Source
	Dest      string
	Size      int64
	SHA256Hex string
}

// Options controls a Copy call.
type Options struct {
	SampleRoot string
	// Workers bounds concurrent copies; <= 0 means one at a time.
	Workers int
	Logger  *zap.Logger
}

// Copy materializes every sample of a. Results follow plan order. The first
// failure cancels the remaining copies and is returned; an unreadable source
// is reported as *CopySourceUnreadableError.
func Copy(ctx context.Context, a plan.Assignment, opt Options) ([]Copied, error) {
	log := opt.Logger
	if log == nil {
		log = zap.NewNop()
	}
	workers := opt.Workers
	if workers <= 0 {
		workers = 1
	}

	type job struct {
		idx       int
		partition string
		sample    walkwalk.Sample
	}
	jobs := make([]job, 0, a.Total())
	for _, b := range a.Buckets {
		for _, s := range b.Samples {
			jobs = append(jobs, job{idx: len(jobs), partition: b.Partition, sample: s})
		}
	}
	out := make([]Copied, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, j := range jobs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			dest := filepath.Join(opt.SampleRoot, j.partition, a.Class, j.sample.Name)
			size, sum, err := copyFile(j.sample.Path, dest)
			if err != nil {
				return err
			}
			out[j.idx] = Copied{
				Partition: j.partition,
				Name:      j.sample.Name,
				Source:    j.sample.Path,
				Origin:    j.sample.Source,
				Dest:      dest,
				Size:      size,
				SHA256Hex: sum,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, b := range a.Buckets {
		log.Info("copied samples",
			zap.String("class", a.Class),
			zap.String("partition", b.Partition),
			zap.Int("count", len(b.Samples)),
		)
	}
	return out, nil
}

// readErrReader remembers whether a failure came from the source side.
type readErrReader struct {
	r   io.Reader
	err error
}

func (r *readErrReader) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)
	if err != nil && err != io.EOF {
		r.err = err
	}
	return n, err
}

// copyFile streams src into dest atomically and returns size and sha256.
func copyFile(src, dest string) (int64, string, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, "", &CopySourceUnreadableError{Source: src, Dest: dest, Err: err}
	}
	defer in.Close()
	if info, err := in.Stat(); err == nil && info.IsDir() {
		return 0, "", &CopySourceUnreadableError{Source: src, Dest: dest, Err: fmt.Errorf("is a directory")}
	}

	rr := &readErrReader{r: in}
	h := sha256.New()
	var n int64
	err = workspace.WriteAtomic(dest, func(w io.Writer) error {
		var cerr error
		n, cerr = io.Copy(io.MultiWriter(w, h), rr)
		return cerr
	})
	if rr.err != nil {
		return 0, "", &CopySourceUnreadableError{Source: src, Dest: dest, Err: rr.err}
	}
	if err != nil {
		return 0, "", fmt.Errorf("write %s: %w", dest, err)
	}
	return n, hex.EncodeToString(h.Sum(nil)), nil
}
