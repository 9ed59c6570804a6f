package aerialqc

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// FileResult is the outcome of sorting one file.
type FileResult struct {
	Name        string // path relative to the sorted directory
	Path        string // original absolute or base-relative path
	Destination string // final path; empty when not moved (dry run or move failure)
	Measurement Measurement
	Verdict     Verdict
	DuplicateOf string // set when rejected as a near-duplicate
	MoveError   string
}

// Summary describes one sorting run.
type Summary struct {
	RunID      string
	Base       string
	GoodDir    string
	BadDir     string
	DryRun     bool
	Started    time.Time
	Finished   time.Time
	Total      int
	Accepted   int
	Rejected   int
	MoveErrors int
	Results    []FileResult
}

// Sorter measures, evaluates and relocates the images of one directory.
type Sorter struct {
	cfg   Config
	audit *AuditLog
}

// NewSorter returns a Sorter. audit may be nil to disable the audit trail.
func NewSorter(cfg Config, audit *AuditLog) *Sorter {
	cfg.defaults()
	return &Sorter{cfg: cfg, audit: audit}
}

// Dirs returns the accept and reject directories used for base.
func (s *Sorter) Dirs(base string) (good, bad string) {
	good, bad = s.cfg.GoodDir, s.cfg.BadDir
	if good == "" {
		good = filepath.Join(base, DefaultGoodDir)
	}
	if bad == "" {
		bad = filepath.Join(base, DefaultBadDir)
	}
	return good, bad
}

// Run sorts every candidate image under base. Files are measured in
// parallel but evaluated, moved and audited one at a time in path order.
// A failed move is recorded and the run continues; only a scan failure or
// context cancellation returns an error.
func (s *Sorter) Run(ctx context.Context, base string) (*Summary, error) {
	log := s.cfg.Logger
	good, bad := s.Dirs(base)

	files, err := CollectImages(base, s.cfg.Recursive, good, bad)
	if err != nil {
		return nil, err
	}

	sum := &Summary{
		RunID:   uuid.NewString(),
		Base:    base,
		GoodDir: good,
		BadDir:  bad,
		DryRun:  s.cfg.DryRun,
		Started: time.Now(),
		Total:   len(files),
		Results: make([]FileResult, 0, len(files)),
	}
	log.Info("aerialqc: run started",
		zap.String("run_id", sum.RunID), zap.String("base", base), zap.Int("files", len(files)),
		zap.Bool("dry_run", s.cfg.DryRun), zap.Int("workers", s.cfg.Workers))
	if s.cfg.OnStart != nil {
		s.cfg.OnStart(len(files))
	}

	if len(files) == 0 {
		sum.Finished = time.Now()
		return sum, nil
	}

	if !s.cfg.DryRun {
		if err := ensureDir(good); err != nil {
			return nil, err
		}
		if err := ensureDir(bad); err != nil {
			return nil, err
		}
	}

	slots, wait := s.measure(ctx, files)
	defer wait()

	dedup := newDedupFilter()
	for i, path := range files {
		var m Measurement
		select {
		case m = <-slots[i]:
		case <-ctx.Done():
		}
		if err := ctx.Err(); err != nil {
			sum.Finished = time.Now()
			return sum, err
		}

		res := s.sortOne(base, path, m, good, bad, dedup)
		if res.Verdict.Accepted {
			sum.Accepted++
		} else {
			sum.Rejected++
		}
		if res.MoveError != "" {
			sum.MoveErrors++
		}
		sum.Results = append(sum.Results, res)
		if s.cfg.OnResult != nil {
			s.cfg.OnResult(res)
		}
	}

	sum.Finished = time.Now()
	log.Info("aerialqc: run finished",
		zap.String("run_id", sum.RunID), zap.Int("accepted", sum.Accepted),
		zap.Int("rejected", sum.Rejected), zap.Int("move_errors", sum.MoveErrors),
		zap.Duration("elapsed", sum.Finished.Sub(sum.Started)))
	return sum, nil
}

// measure extracts every file with at most cfg.Workers extractions in flight.
// The i-th slot receives the measurement of files[i]. wait blocks until all
// started extractions have returned.
func (s *Sorter) measure(ctx context.Context, files []string) (slots []chan Measurement, wait func()) {
	ex := s.cfg.extractor()
	slots = make([]chan Measurement, len(files))
	for i := range slots {
		slots[i] = make(chan Measurement, 1)
	}

	var g errgroup.Group
	g.SetLimit(s.cfg.Workers)
	launched := make(chan struct{})
	go func() {
		defer close(launched)
		for i, path := range files {
			if ctx.Err() != nil {
				return
			}
			g.Go(func() error {
				slots[i] <- ex.Extract(ctx, path)
				return nil
			})
		}
	}()

	return slots, func() {
		<-launched
		_ = g.Wait()
	}
}

func (s *Sorter) sortOne(base, path string, m Measurement, good, bad string, dedup *dedupFilter) FileResult {
	name, err := filepath.Rel(base, path)
	if err != nil {
		name = filepath.Base(path)
	}

	res := FileResult{Name: name, Path: path, Measurement: m}
	v := Evaluate(m, s.cfg.Thresholds)
	if v.Accepted && s.cfg.Dedup {
		if other := dedup.duplicateOf(m.Hash, name); other != "" {
			v = rejectDuplicate(v, other)
			res.DuplicateOf = other
		}
	}
	res.Verdict = v

	dir := bad
	if v.Accepted {
		dir = good
	}
	if !s.cfg.DryRun {
		dst, err := moveFile(path, dir)
		if err != nil {
			res.MoveError = err.Error()
			s.cfg.Logger.Warn("aerialqc: move failed", zap.String("file", name), zap.Error(err))
			s.audit.Note(fmt.Sprintf("%s [MOVE FAILED] -> %v", name, err))
		}
		res.Destination = dst
	}

	s.audit.Record(name, v)
	s.cfg.Logger.Debug("aerialqc: evaluated",
		zap.String("file", name), zap.Bool("accepted", v.Accepted), zap.Strings("reasons", v.Reasons))
	return res
}

// rejectDuplicate turns an accepted verdict into a rejection caused by a
// near-duplicate of an earlier accepted image.
func rejectDuplicate(v Verdict, other string) Verdict {
	reasons := make([]string, 0, len(v.Reasons)+1)
	reasons = append(reasons, v.Reasons...)
	reasons = append(reasons, "Near Duplicate ("+other+")")
	return Verdict{
		Accepted:   false,
		Reasons:    reasons,
		Diagnostic: v.Diagnostic,
		Checks:     v.Checks,
	}
}
