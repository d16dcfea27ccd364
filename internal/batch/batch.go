package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/manash/bizforge/pkg/models"
)

// Invoker runs one workflow. *orchestrator.Orchestrator satisfies it.
type Invoker interface {
	Invoke(ctx context.Context, kind models.Kind, in models.Inputs) (models.Result, error)
}

type Result struct {
	Index    int
	Kind     models.Kind
	Result   models.Result
	Error    error
	Duration time.Duration
	// Skipped is set for items never started because the batch stopped.
	Skipped bool
}

// Failed reports whether the item did not produce a successful result.
func (r Result) Failed() bool {
	return r.Error != nil || !r.Result.Success
}

func (r Result) failure() error {
	if r.Error != nil {
		return r.Error
	}
	return errors.New(r.Result.ErrorMessage)
}

type Options struct {
	// Parallel bounds how many kinds run at once. Items of the same kind
	// always run one after another.
	Parallel    int
	StopOnError bool
	DelayMs     int
}

type Processor struct {
	invoker Invoker
	out     io.Writer
	err     io.Writer
	outMu   sync.Mutex
}

func NewProcessor(invoker Invoker, out, errOut io.Writer) *Processor {
	return &Processor{
		invoker: invoker,
		out:     out,
		err:     errOut,
	}
}

func (p *Processor) printf(format string, args ...interface{}) {
	p.outMu.Lock()
	fmt.Fprintf(p.out, format, args...)
	p.outMu.Unlock()
}

func (p *Processor) errorf(format string, args ...interface{}) {
	p.outMu.Lock()
	fmt.Fprintf(p.err, format, args...)
	p.outMu.Unlock()
}

// Process runs items grouped into one lane per kind. Results keep the order
// of items.
func (p *Processor) Process(ctx context.Context, items []Item, opts *Options) ([]Result, error) {
	results := make([]Result, len(items))
	for i, item := range items {
		results[i] = Result{Index: item.Index, Kind: item.Kind, Skipped: true}
	}

	lanes := make(map[models.Kind][]int)
	var order []models.Kind
	for i, item := range items {
		if _, ok := lanes[item.Kind]; !ok {
			order = append(order, item.Kind)
		}
		lanes[item.Kind] = append(lanes[item.Kind], i)
	}

	g, gctx := errgroup.WithContext(ctx)
	limit := opts.Parallel
	if limit < 1 {
		limit = 1
	}
	g.SetLimit(limit)

	total := len(items)
	var started int
	var startedMu sync.Mutex
	next := func() int {
		startedMu.Lock()
		defer startedMu.Unlock()
		started++
		return started
	}

	for _, kind := range order {
		indexes := lanes[kind]
		g.Go(func() error {
			for n, i := range indexes {
				if err := gctx.Err(); err != nil {
					return err
				}

				result := p.processItem(gctx, items[i], next(), total)
				results[i] = result

				if result.Failed() && opts.StopOnError {
					return fmt.Errorf("stopped at item %d: %w", result.Index, result.failure())
				}

				if opts.DelayMs > 0 && n < len(indexes)-1 {
					select {
					case <-gctx.Done():
						return gctx.Err()
					case <-time.After(time.Duration(opts.DelayMs) * time.Millisecond):
					}
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, ctx.Err()
}

func (p *Processor) processItem(ctx context.Context, item Item, current, total int) Result {
	start := time.Now()
	p.printf("[%d/%d] %s...\n", current, total, item.Kind.DisplayName())

	res, err := p.invoker.Invoke(ctx, item.Kind, item.Inputs)
	result := Result{
		Index:    item.Index,
		Kind:     item.Kind,
		Result:   res,
		Error:    err,
		Duration: time.Since(start),
	}

	switch {
	case err != nil:
		p.errorf("       Error: %v\n", err)
	case !res.Success:
		p.errorf("       Error: %s\n", res.ErrorMessage)
	default:
		p.printf("       Done in %s\n", result.Duration.Round(time.Millisecond))
	}
	return result
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func (p *Processor) PrintSummary(results []Result) {
	var successful, failed, skipped int
	var errs []Result

	for _, r := range results {
		switch {
		case r.Skipped:
			skipped++
		case r.Failed():
			failed++
			errs = append(errs, r)
		default:
			successful++
		}
	}

	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, "Summary:")
	fmt.Fprintf(p.out, "  Successful: %d/%d jobs\n", successful, len(results))
	if failed > 0 {
		fmt.Fprintf(p.out, "  Failed: %d (see errors below)\n", failed)
	}
	if skipped > 0 {
		fmt.Fprintf(p.out, "  Skipped: %d\n", skipped)
	}

	if len(errs) > 0 {
		fmt.Fprintln(p.out)
		fmt.Fprintln(p.out, "Errors:")
		for _, e := range errs {
			fmt.Fprintf(p.out, "  [%d] %s: %s\n", e.Index, e.Kind, truncate(e.failure().Error(), 80))
		}
	}
}
