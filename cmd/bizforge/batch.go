package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/manash/bizforge/internal/batch"
	"github.com/manash/bizforge/pkg/models"
)

type batchFlags struct {
	parallel    int
	stopOnError bool
	delayMs     int
}

func (f *batchFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&f.parallel, "parallel", "p", 0, "workflows of different kinds to run at once (defaults to config)")
	cmd.Flags().BoolVar(&f.stopOnError, "stop-on-error", false, "stop at the first failed job")
	cmd.Flags().IntVar(&f.delayMs, "delay", 0, "delay between jobs of the same kind in milliseconds")
}

// envInvoker lets the batch processor go through env.invoke so --use-voice
// applies to every job.
type envInvoker struct {
	e *env
}

func (i envInvoker) Invoke(ctx context.Context, kind models.Kind, in models.Inputs) (models.Result, error) {
	return i.e.invoke(ctx, kind, in)
}

func (app *App) runBatch(cmd *cobra.Command, g *globalFlags, f *batchFlags, items []batch.Item) error {
	return app.withEnv(cmd, g, func(ctx context.Context, e *env) error {
		parallel := e.cfg.Parallel
		if cmd.Flags().Changed("parallel") {
			parallel = f.parallel
		}

		proc := batch.NewProcessor(envInvoker{e: e}, app.Out, app.Err)
		results, err := proc.Process(ctx, items, &batch.Options{
			Parallel:    parallel,
			StopOnError: f.stopOnError,
			DelayMs:     f.delayMs,
		})

		for _, r := range results {
			if r.Skipped || r.Failed() {
				continue
			}
			fmt.Fprintln(app.Out)
			e.renderer.Result(r.Result)
		}
		proc.PrintSummary(results)

		if err != nil {
			return err
		}
		for _, r := range results {
			if r.Failed() {
				return errReported
			}
		}
		return nil
	})
}

func newBatchCmd(app *App, g *globalFlags) *cobra.Command {
	f := &batchFlags{}

	cmd := &cobra.Command{
		Use:   "batch <file>",
		Short: "Run workflows listed in a job file",
		Long: `Run workflows listed in a JSON or YAML job file.

Each job names a kind (brand_name, logo, content, design, sentiment, chat)
and its inputs. A .txt file holds one chat message per line.

Jobs of the same kind run one after another; different kinds run in parallel.

Example jobs.yaml:
  - kind: brand_name
    keywords: coffee, cozy
    industry: Food
  - kind: sentiment
    text: The latte was perfect`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := batch.ParseFile(args[0])
			if err != nil {
				return err
			}
			if len(items) == 0 {
				return fmt.Errorf("no jobs found in %s", args[0])
			}
			fmt.Fprintf(app.Out, "Running %d job(s)\n\n", len(items))
			return app.runBatch(cmd, g, f, items)
		},
	}

	f.register(cmd)

	return cmd
}

func newKitCmd(app *App, g *globalFlags) *cobra.Command {
	var in models.Inputs
	f := &batchFlags{}

	cmd := &cobra.Command{
		Use:   "kit",
		Short: "Build a starter kit: brand names, a design system, and launch copy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if in.ContentType == "" {
				in.ContentType = defaultContentType
			}
			return app.runBatch(cmd, g, f, batch.KitItems(in))
		},
	}

	cmd.Flags().StringVarP(&in.BrandName, "name", "n", "", "brand name")
	cmd.Flags().StringVarP(&in.Industry, "industry", "i", "", "industry")
	cmd.Flags().StringVarP(&in.Tone, "tone", "t", "", "tone of voice")
	cmd.Flags().StringVarP(&in.Keywords, "keywords", "k", "", "comma separated keywords")
	cmd.Flags().StringVarP(&in.Description, "description", "d", "", "what the brand does")
	cmd.Flags().StringVar(&in.ContentType, "type", defaultContentType, "content type for the launch copy")
	f.register(cmd)

	return cmd
}
