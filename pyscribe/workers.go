package pyscribe

import (
	"log/slog"
	"os"
	"runtime"
	"sort"
	"sync"
	"time"
)

// FileResult is the outcome of parsing one file. Exactly one of Items and
// Err is meaningful.
type FileResult struct {
	Path   string        `json:"path"`
	Module string        `json:"module"`
	Items  []LocatedItem `json:"items"`
	Err    error         `json:"-"`
}

// ParseFilesResult holds per-file results ordered by path.
type ParseFilesResult struct {
	Files []FileResult `json:"files"`
}

// Items returns the items of every successfully parsed file in path order.
func (r *ParseFilesResult) Items() []LocatedItem {
	items := []LocatedItem{}
	for _, f := range r.Files {
		if f.Err == nil {
			items = append(items, f.Items...)
		}
	}
	return items
}

// Failed returns the files that could not be read or parsed.
func (r *ParseFilesResult) Failed() []FileResult {
	var failed []FileResult
	for _, f := range r.Files {
		if f.Err != nil {
			failed = append(failed, f)
		}
	}
	return failed
}

// ParseFiles discovers Python files and parses them in parallel. A file that
// fails to read or parse is recorded in its FileResult and does not abort
// the batch.
func ParseFiles(opts ParseFilesOptions) (*ParseFilesResult, error) {
	if opts.Path == "" {
		opts.Path = "."
	}
	if opts.Jobs == 0 {
		opts.Jobs = runtime.NumCPU()
	}
	if opts.MaxBytes == 0 {
		opts.MaxBytes = 2 * 1024 * 1024
	}

	exclude, err := compileGlobs(opts.Exclude)
	if err != nil {
		return nil, err
	}

	var files []FileJob
	if opts.File != "" {
		sc := newScanner(scannerConfig{moduleRoot: opts.ModuleRoot, maxBytes: opts.MaxBytes})
		files, err = sc.collectSingle(opts.File)
		if err != nil {
			return nil, err
		}
	} else {
		sc := newScanner(scannerConfig{
			root:       opts.Path,
			moduleRoot: opts.ModuleRoot,
			exclude:    exclude,
			maxBytes:   opts.MaxBytes,
		})
		files, err = sc.collect()
		if err != nil {
			return nil, err
		}
	}

	if len(files) == 0 {
		return &ParseFilesResult{Files: []FileResult{}}, nil
	}

	p := Parser{SkipValidation: opts.SkipValidation}
	results := runParseWorkers(files, opts.Jobs, func(job FileJob) FileResult {
		return parseFile(p, job, opts.Observer)
	})

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			slog.Warn("failed to parse file", "path", r.Path, "error", r.Err)
		}
	}
	slog.Debug("parsed files", "files", len(results), "failed", failed)

	return &ParseFilesResult{Files: results}, nil
}

func parseFile(p Parser, job FileJob, observer Observer) FileResult {
	start := time.Now()
	result := FileResult{Path: job.DisplayPath, Module: job.Module}

	source, err := os.ReadFile(job.AbsPath)
	if err != nil {
		result.Err = IOError(job.DisplayPath, err)
	} else if items, err := p.Parse(string(source)); err != nil {
		result.Err = AddContext(err, CtxPath, job.DisplayPath)
	} else {
		result.Items = Locate(items, job.Module, job.DisplayPath)
	}

	if observer != nil {
		observer.ObserveFile(time.Since(start), result.Items, result.Err)
	}
	return result
}

// runParseWorkers fans files out to a fixed pool and returns one result per
// file sorted by path.
func runParseWorkers(files []FileJob, jobs int, process func(FileJob) FileResult) []FileResult {
	results := make(chan FileResult, 128)
	jobQueue := make(chan FileJob, 128)
	var wg sync.WaitGroup

	workerCount := jobs
	if workerCount < 1 {
		workerCount = 1
	}
	if workerCount > len(files) {
		workerCount = len(files)
	}

	worker := func() {
		defer wg.Done()
		for job := range jobQueue {
			results <- process(job)
		}
	}

	wg.Add(workerCount)
	for i := 0; i < workerCount; i++ {
		go worker()
	}

	go func() {
		for _, f := range files {
			jobQueue <- f
		}
		close(jobQueue)
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	allResults := make([]FileResult, 0, len(files))
	for result := range results {
		allResults = append(allResults, result)
	}

	sort.Slice(allResults, func(i, j int) bool {
		return allResults[i].Path < allResults[j].Path
	})
	return allResults
}
