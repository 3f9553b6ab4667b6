package matcher

import (
	"fmt"
	"sync"

	"github.com/desertthunder/scsync/internal/models"
	"github.com/desertthunder/scsync/internal/shared"
)

// ReconcileOpts tunes a reconciliation run.
type ReconcileOpts struct {
	// Workers > 1 matches remote tracks concurrently. Output order is unaffected.
	Workers int
}

// Reconciliation is the partition of a remote snapshot into joined and missing tracks.
type Reconciliation struct {
	Joined  []models.MatchResult
	Missing []models.RemoteTrack
}

// Stats counts a reconciliation's results by match kind.
type Stats struct {
	Total        int
	Joined       int
	Missing      int
	TokenOverlap int
	URLFallback  int
}

// SharedLocal is a local file joined to more than one remote track.
type SharedLocal struct {
	FilePath string
	Remotes  []models.RemoteTrack
}

// Reconcile validates both snapshots and matches every remote track against catalog.
//
// Joined and Missing keep the relative order of remote and together hold every
// remote track exactly once. Malformed or duplicate identity fields fail with
// [shared.ErrMalformedInput] before any matching happens.
func Reconcile(remote []models.RemoteTrack, catalog []models.LocalTrack, opts ReconcileOpts) (*Reconciliation, error) {
	if err := ValidateSnapshots(remote, catalog); err != nil {
		return nil, err
	}

	ix := NewIndex(catalog)
	results := make([]models.MatchResult, len(remote))

	if opts.Workers > 1 && len(remote) > 1 {
		matchParallel(ix, remote, results, opts.Workers)
	} else {
		for i, r := range remote {
			results[i] = ix.FindMatch(r)
		}
	}

	rec := &Reconciliation{
		Joined:  make([]models.MatchResult, 0, len(results)),
		Missing: make([]models.RemoteTrack, 0),
	}
	for _, res := range results {
		if res.Kind == models.MatchNone {
			rec.Missing = append(rec.Missing, res.Remote)
		} else {
			rec.Joined = append(rec.Joined, res)
		}
	}
	return rec, nil
}

// matchParallel fills results by input index so ordering matches the sequential path.
func matchParallel(ix *Index, remote []models.RemoteTrack, results []models.MatchResult, workers int) {
	if workers > len(remote) {
		workers = len(remote)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup

	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = ix.FindMatch(remote[i])
			}
		}()
	}

	for i := range remote {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
}

// ValidateSnapshots checks that every remote track has a unique URL and every local
// track a unique file path.
func ValidateSnapshots(remote []models.RemoteTrack, catalog []models.LocalTrack) error {
	urls := make(map[string]int, len(remote))
	for i, r := range remote {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("remote[%d]: %w", i, err)
		}
		if prev, ok := urls[r.URL]; ok {
			return fmt.Errorf("%w: remote[%d] repeats url %q of remote[%d]", shared.ErrMalformedInput, i, r.URL, prev)
		}
		urls[r.URL] = i
	}

	paths := make(map[string]int, len(catalog))
	for i, l := range catalog {
		if err := l.Validate(); err != nil {
			return fmt.Errorf("local[%d]: %w", i, err)
		}
		if prev, ok := paths[l.FilePath]; ok {
			return fmt.Errorf("%w: local[%d] repeats file path %q of local[%d]", shared.ErrMalformedInput, i, l.FilePath, prev)
		}
		paths[l.FilePath] = i
	}
	return nil
}

// Stats counts results by kind.
func (r *Reconciliation) Stats() Stats {
	s := Stats{
		Total:   len(r.Joined) + len(r.Missing),
		Joined:  len(r.Joined),
		Missing: len(r.Missing),
	}
	for _, res := range r.Joined {
		switch res.Kind {
		case models.MatchTokenOverlap:
			s.TokenOverlap++
		case models.MatchURLFallback:
			s.URLFallback++
		}
	}
	return s
}

// SharedLocals lists local files joined to several remote tracks, in order of first use.
func (r *Reconciliation) SharedLocals() []SharedLocal {
	byPath := make(map[string]int)
	var groups []SharedLocal

	for _, res := range r.Joined {
		if res.Local == nil {
			continue
		}
		if idx, ok := byPath[res.Local.FilePath]; ok {
			groups[idx].Remotes = append(groups[idx].Remotes, res.Remote)
			continue
		}
		byPath[res.Local.FilePath] = len(groups)
		groups = append(groups, SharedLocal{FilePath: res.Local.FilePath, Remotes: []models.RemoteTrack{res.Remote}})
	}

	out := groups[:0]
	for _, s := range groups {
		if len(s.Remotes) > 1 {
			out = append(out, s)
		}
	}
	return out
}
