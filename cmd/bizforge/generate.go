package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/manash/bizforge/internal/render"
	"github.com/manash/bizforge/internal/repl"
	"github.com/manash/bizforge/internal/security"
	"github.com/manash/bizforge/internal/workflow"
	"github.com/manash/bizforge/pkg/models"
)

const defaultContentType = "social_post"

// errReported marks a failure that has already been shown to the user.
var errReported = errors.New("failure already reported")

// invoke runs one workflow, filling blank inputs from the saved brand voice
// when --use-voice is set.
func (e *env) invoke(ctx context.Context, kind models.Kind, in models.Inputs) (models.Result, error) {
	if e.useVoice {
		p, err := e.voice.Current(ctx)
		if err != nil {
			return models.Result{}, err
		}
		in = workflow.ApplyProfile(in, p)
	}
	return e.orch.Invoke(ctx, kind, in)
}

// show renders the outcome of invoke. Validation errors and failed results
// are printed here and reported as errReported.
func (e *env) show(res models.Result, err error) error {
	var ve *models.ValidationError
	if errors.As(err, &ve) {
		e.renderer.Error(ve.UserMessage())
		return errReported
	}
	if err != nil {
		return err
	}
	e.renderer.Result(res)
	if !res.Success {
		return errReported
	}
	return nil
}

func (app *App) runWorkflow(cmd *cobra.Command, g *globalFlags, kind models.Kind, in models.Inputs) error {
	return app.withEnv(cmd, g, func(ctx context.Context, e *env) error {
		return e.show(e.invoke(ctx, kind, in))
	})
}

func newBrandNameCmd(app *App, g *globalFlags) *cobra.Command {
	var in models.Inputs

	cmd := &cobra.Command{
		Use:   "brand-name",
		Short: "Suggest brand names",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.runWorkflow(cmd, g, models.KindBrandName, in)
		},
	}

	cmd.Flags().StringVarP(&in.Keywords, "keywords", "k", "", "comma separated keywords")
	cmd.Flags().StringVarP(&in.Industry, "industry", "i", "", "industry")
	cmd.Flags().StringVarP(&in.Tone, "tone", "t", "", "tone or naming style")

	return cmd
}

func newLogoCmd(app *App, g *globalFlags) *cobra.Command {
	var (
		in       models.Inputs
		savePath string
	)

	cmd := &cobra.Command{
		Use:   "logo",
		Short: "Generate logo prompts and an image",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if savePath != "" {
				if err := security.ValidateOutputPath(savePath); err != nil {
					return fmt.Errorf("invalid --save path: %w", err)
				}
			}
			return app.withEnv(cmd, g, func(ctx context.Context, e *env) error {
				res, err := e.invoke(ctx, models.KindLogo, in)
				if err := e.show(res, err); err != nil {
					return err
				}
				if savePath == "" {
					return nil
				}
				if res.ImageRef == "" {
					return errors.New("the service returned no image to save")
				}
				if err := render.NewSaver(security.URLPolicy{}).Save(ctx, res.ImageRef, savePath); err != nil {
					return err
				}
				fmt.Fprintf(app.Out, "Saved: %s\n", savePath)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&in.BrandName, "name", "n", "", "brand name")
	cmd.Flags().StringVarP(&in.Industry, "industry", "i", "", "industry")
	cmd.Flags().StringVar(&in.Keywords, "values", "", "brand values")
	cmd.Flags().StringVarP(&savePath, "save", "o", "", "save the logo image to this file")

	return cmd
}

func newContentCmd(app *App, g *globalFlags) *cobra.Command {
	var in models.Inputs

	cmd := &cobra.Command{
		Use:   "content",
		Short: "Write marketing content",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.runWorkflow(cmd, g, models.KindContent, in)
		},
	}

	cmd.Flags().StringVarP(&in.BrandName, "name", "n", "", "brand name")
	cmd.Flags().StringVarP(&in.Description, "description", "d", "", "what the brand does")
	cmd.Flags().StringVarP(&in.Tone, "tone", "t", "", "tone of voice")
	cmd.Flags().StringVar(&in.ContentType, "type", defaultContentType, "content type (tagline, social_post, email, ad_copy, landing_page, blog_intro)")

	return cmd
}

func newDesignCmd(app *App, g *globalFlags) *cobra.Command {
	var in models.Inputs

	cmd := &cobra.Command{
		Use:   "design",
		Short: "Recommend colors and fonts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.runWorkflow(cmd, g, models.KindDesign, in)
		},
	}

	cmd.Flags().StringVarP(&in.BrandName, "name", "n", "", "brand name")
	cmd.Flags().StringVarP(&in.Tone, "tone", "t", "", "brand personality")
	cmd.Flags().StringVarP(&in.Industry, "industry", "i", "", "industry")

	return cmd
}

func newSentimentCmd(app *App, g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "sentiment <review text>",
		Short: "Analyze the sentiment of a customer review",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runWorkflow(cmd, g, models.KindSentiment, models.Inputs{Text: strings.Join(args, " ")})
		},
	}
}

func newChatCmd(app *App, g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "chat [message]",
		Short: "Ask the branding assistant; starts an interactive chat without a message",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return app.runWorkflow(cmd, g, models.KindChat, models.Inputs{Message: strings.Join(args, " ")})
			}
			return app.withEnv(cmd, g, func(ctx context.Context, e *env) error {
				name := ""
				if sess, err := e.sessions.Current(ctx); err == nil && sess != nil {
					name = sess.FirstName()
				}
				r := repl.New(&repl.Config{
					In:       app.In,
					Out:      app.Out,
					Err:      app.Err,
					Invoker:  e.orch,
					Renderer: e.renderer,
					Profile:  e.voice,
					UseVoice: e.useVoice,
					UserName: name,
				})
				return r.Run(ctx)
			})
		},
	}
}
