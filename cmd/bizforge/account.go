package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/manash/bizforge/internal/account"
	"github.com/manash/bizforge/internal/config"
	"github.com/manash/bizforge/internal/render"
	"github.com/manash/bizforge/internal/security"
	"github.com/manash/bizforge/pkg/models"
)

func newLoginCmd(app *App, g *globalFlags) *cobra.Command {
	var token string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with an identity token",
		Long: `Sign in with an identity token issued by your identity provider.

The token is read from --token or ` + config.EnvIDToken + `. The session lasts one hour.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if token == "" {
				token = app.GetEnv(config.EnvIDToken)
			}
			if token == "" {
				return fmt.Errorf("identity token required: set %s or use --token", config.EnvIDToken)
			}

			return app.withEnv(cmd, g, func(ctx context.Context, e *env) error {
				sess, err := e.sessions.Establish(ctx, token)
				if err != nil {
					return fmt.Errorf("sign in failed: %w", err)
				}
				fmt.Fprintf(app.Out, "Signed in as %s <%s>\n", sess.DisplayName, sess.Email)

				_, refreshed := e.voice.Load(ctx, sess.SubjectID)
				if _, ok := <-refreshed; ok {
					fmt.Fprintln(app.Out, "Brand voice restored from your account.")
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "identity token")

	return cmd
}

func newLogoutCmd(app *App, g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.withEnv(cmd, g, func(ctx context.Context, e *env) error {
				if err := e.sessions.Clear(ctx); err != nil {
					return err
				}
				fmt.Fprintln(app.Out, "Signed out.")
				return nil
			})
		},
	}
}

func newWhoamiCmd(app *App, g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.withEnv(cmd, g, func(ctx context.Context, e *env) error {
				sess, err := e.sessions.Current(ctx)
				if err != nil {
					return err
				}
				if sess == nil {
					fmt.Fprintln(app.Out, "Not signed in.")
					return nil
				}
				fmt.Fprintf(app.Out, "Name:    %s\n", sess.DisplayName)
				fmt.Fprintf(app.Out, "Email:   %s\n", sess.Email)
				fmt.Fprintf(app.Out, "Subject: %s\n", sess.SubjectID)
				fmt.Fprintf(app.Out, "Expires: %s\n", sess.ExpiresAt().Format(time.RFC3339))
				return nil
			})
		},
	}
}

func newVoiceCmd(app *App, g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "voice",
		Short: "Show or change the saved brand voice",
	}
	cmd.AddCommand(newVoiceShowCmd(app, g), newVoiceSetCmd(app, g))
	return cmd
}

func printProfile(app *App, p models.BrandVoiceProfile) {
	if p.IsZero() {
		fmt.Fprintln(app.Out, "No brand voice saved.")
		return
	}
	fmt.Fprintf(app.Out, "Personality:     %s\n", p.Personality)
	fmt.Fprintf(app.Out, "Industry:        %s\n", p.Industry)
	fmt.Fprintf(app.Out, "Target audience: %s\n", p.TargetAudience)
	fmt.Fprintf(app.Out, "Tone:            %s\n", p.Tone)
}

func newVoiceShowCmd(app *App, g *globalFlags) *cobra.Command {
	var asYAML bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the brand voice",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.withEnv(cmd, g, func(ctx context.Context, e *env) error {
				local, refreshed := e.voice.Load(ctx, e.subjectID(ctx))

				if asYAML {
					p := local
					if remote, ok := <-refreshed; ok {
						p = remote
					}
					data, err := yaml.Marshal(p)
					if err != nil {
						return fmt.Errorf("failed to encode brand voice: %w", err)
					}
					_, err = app.Out.Write(data)
					return err
				}

				printProfile(app, local)
				if remote, ok := <-refreshed; ok && remote != local {
					fmt.Fprintln(app.Out)
					fmt.Fprintln(app.Out, "Updated from your account:")
					printProfile(app, remote)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asYAML, "yaml", false, "print as YAML")

	return cmd
}

func newVoiceSetCmd(app *App, g *globalFlags) *cobra.Command {
	var p models.BrandVoiceProfile

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Save the brand voice",
		Long:  "Save the brand voice locally and, when signed in, to your account. Fields not given keep their saved value.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.withEnv(cmd, g, func(ctx context.Context, e *env) error {
				current, err := e.voice.Current(ctx)
				if err != nil {
					return err
				}

				flags := cmd.Flags()
				if flags.Changed("personality") {
					current.Personality = p.Personality
				}
				if flags.Changed("industry") {
					current.Industry = p.Industry
				}
				if flags.Changed("audience") {
					current.TargetAudience = p.TargetAudience
				}
				if flags.Changed("tone") {
					current.Tone = p.Tone
				}

				subject := e.subjectID(ctx)
				if err := e.voice.Save(ctx, subject, current); err != nil {
					return err
				}
				if subject == "" {
					fmt.Fprintln(app.Out, "Brand voice saved locally. Sign in to keep it in your account.")
					return nil
				}
				fmt.Fprintln(app.Out, "Brand voice saved.")
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&p.Personality, "personality", "", "brand personality")
	cmd.Flags().StringVar(&p.Industry, "industry", "", "industry")
	cmd.Flags().StringVar(&p.TargetAudience, "audience", "", "target audience")
	cmd.Flags().StringVar(&p.Tone, "tone", "", "tone of voice")

	return cmd
}

func newExportCmd(app *App, g *globalFlags) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the brand guide as a PDF",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.withEnv(cmd, g, func(ctx context.Context, e *env) error {
				name := ""
				if sess, err := e.sessions.Current(ctx); err == nil && sess != nil {
					name = sess.DisplayName
				}
				profile, err := e.voice.Current(ctx)
				if err != nil {
					return err
				}

				path := outPath
				if path == "" {
					path = render.GuideFilename(name)
				}
				if err := security.ValidateOutputPath(path); err != nil {
					return fmt.Errorf("invalid --out path: %w", err)
				}

				export, err := e.account.ExportBrandGuide(ctx, account.NewBrandGuide(name, profile))
				if err != nil {
					return fmt.Errorf("export failed: %w", err)
				}
				if len(export.Data) == 0 {
					return errors.New("export failed: empty document")
				}
				if err := render.WriteFile(path, export.Data); err != nil {
					return err
				}
				fmt.Fprintf(app.Out, "Saved brand guide: %s (%d bytes)\n", path, len(export.Data))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (defaults to <name>_Guide.pdf)")

	return cmd
}

func newHealthCmd(app *App, g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the service is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.withEnv(cmd, g, func(ctx context.Context, e *env) error {
				status, err := e.account.Health(ctx)
				if err != nil {
					return fmt.Errorf("service unreachable: %w", err)
				}
				fmt.Fprintf(app.Out, "Service: %s\n", status.Service)
				fmt.Fprintf(app.Out, "Status:  %s\n", status.Status)
				fmt.Fprintf(app.Out, "Model:   %s\n", status.Model)
				return nil
			})
		},
	}
}
