package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/manash/bizforge/internal/account"
	"github.com/manash/bizforge/internal/brandvoice"
	"github.com/manash/bizforge/internal/config"
	"github.com/manash/bizforge/internal/logging"
	"github.com/manash/bizforge/internal/orchestrator"
	"github.com/manash/bizforge/internal/render"
	"github.com/manash/bizforge/internal/session"
	"github.com/manash/bizforge/internal/store"
	"github.com/manash/bizforge/internal/transport"
)

var (
	version = "dev"
	commit  = "none"
)

type App struct {
	In     io.Reader
	Out    io.Writer
	Err    io.Writer
	GetEnv func(string) string
	// DotEnvPath is the .env file read before the environment.
	DotEnvPath string
	// HTTPClient replaces the transport's default client when set.
	HTTPClient *http.Client
	// IsTerminal decides whether output gets markdown styling and inline images.
	IsTerminal func(io.Writer) bool
}

func DefaultApp() *App {
	return &App{
		In:         os.Stdin,
		Out:        os.Stdout,
		Err:        os.Stderr,
		GetEnv:     os.Getenv,
		DotEnvPath: ".env",
		IsTerminal: render.IsTerminal,
	}
}

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	apiURL   string
	verbose  bool
	jsonLogs bool
	dataDir  string
	useVoice bool
}

func main() {
	if err := run(); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	app := DefaultApp()
	return newRootCmd(app).ExecuteContext(ctx)
}

func newRootCmd(app *App) *cobra.Command {
	g := &globalFlags{}

	cmd := &cobra.Command{
		Use:   "bizforge",
		Short: "AI branding assistant for small businesses",
		Long: `bizforge talks to the BizForge service to generate brand names, logos,
marketing content, design systems, review sentiment, and branding advice.

Examples:
  bizforge brand-name --keywords "coffee, cozy" --industry Food --tone Friendly
  bizforge sentiment "Great coffee but the wait was long"
  bizforge chat
  bizforge kit --name Brewly --industry Food --tone Warm --description "Neighborhood cafe"`,
		Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetIn(app.In)
	cmd.SetOut(app.Out)
	cmd.SetErr(app.Err)

	pf := cmd.PersistentFlags()
	pf.StringVar(&g.apiURL, "api-url", "", "service base URL (defaults to "+config.DefaultAPIURL+")")
	pf.BoolVar(&g.verbose, "verbose", false, "log requests and responses to stderr")
	pf.BoolVar(&g.jsonLogs, "json-logs", false, "write logs as JSON")
	pf.StringVar(&g.dataDir, "data-dir", "", "directory for the local database")
	pf.BoolVar(&g.useVoice, "use-voice", false, "fill empty industry and tone inputs from the saved brand voice")

	cmd.AddCommand(
		newBrandNameCmd(app, g),
		newLogoCmd(app, g),
		newContentCmd(app, g),
		newDesignCmd(app, g),
		newSentimentCmd(app, g),
		newChatCmd(app, g),
		newBatchCmd(app, g),
		newKitCmd(app, g),
		newLoginCmd(app, g),
		newLogoutCmd(app, g),
		newWhoamiCmd(app, g),
		newVoiceCmd(app, g),
		newExportCmd(app, g),
		newHealthCmd(app, g),
	)

	return cmd
}

// env is everything a command needs, wired from the resolved configuration.
type env struct {
	cfg      *config.Config
	logger   *zap.Logger
	db       *store.DB
	account  *account.Client
	sessions *session.Manager
	voice    *brandvoice.Manager
	orch     *orchestrator.Orchestrator
	renderer *render.Renderer
	useVoice bool
}

func (app *App) loadConfig(cmd *cobra.Command, g *globalFlags) (*config.Config, error) {
	flags := cmd.Flags()
	return config.Loader{
		GetEnv:     app.GetEnv,
		DotEnvPath: app.DotEnvPath,
		Override: func(cfg *config.Config) {
			if flags.Changed("api-url") {
				cfg.APIURL = g.apiURL
			}
			if flags.Changed("verbose") {
				cfg.Verbose = g.verbose
			}
			if flags.Changed("json-logs") {
				cfg.JSONLogs = g.jsonLogs
			}
			if flags.Changed("data-dir") {
				cfg.DataDir = g.dataDir
			}
		},
	}.Load()
}

func (app *App) open(cmd *cobra.Command, g *globalFlags) (*env, error) {
	cfg, err := app.loadConfig(cmd, g)
	if err != nil {
		return nil, err
	}

	logger := logging.New(logging.Options{Verbose: cfg.Verbose, JSON: cfg.JSONLogs, Output: app.Err})

	db, err := store.Open(cfg.DataDir)
	if err != nil {
		return nil, err
	}

	opts := []transport.Option{transport.WithLogger(logger)}
	if app.HTTPClient != nil {
		opts = append(opts, transport.WithHTTPClient(app.HTTPClient))
	}
	t, err := transport.New(&transport.Config{
		BaseURL:    cfg.APIURL,
		TimeoutSec: cfg.TimeoutSec,
		Retries:    cfg.Retries,
		Verbose:    cfg.Verbose,
	}, opts...)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create transport: %w", err)
	}

	acct := account.New(t)
	terminal := app.IsTerminal != nil && app.IsTerminal(app.Out)

	return &env{
		cfg:      cfg,
		logger:   logger,
		db:       db,
		account:  acct,
		sessions: session.NewManager(db, session.WithSyncer(acct), session.WithLogger(logger.Named("session"))),
		voice:    brandvoice.NewManager(db, acct, brandvoice.WithLogger(logger.Named("brandvoice"))),
		orch:     orchestrator.New(t, orchestrator.WithLogger(logger.Named("orchestrator"))),
		renderer: render.New(app.Out, render.Options{
			Plain:        !terminal,
			InlineImages: terminal && render.SupportsInlineImages(app.GetEnv),
			Width:        render.TerminalWidth(app.Out),
		}),
		useVoice: g.useVoice,
	}, nil
}

// Close waits for background sync work, then releases the database.
func (e *env) Close() error {
	e.sessions.Wait()
	e.voice.Wait()
	_ = e.logger.Sync()
	return e.db.Close()
}

// withEnv opens the environment for the duration of fn.
func (app *App) withEnv(cmd *cobra.Command, g *globalFlags, fn func(ctx context.Context, e *env) error) (err error) {
	e, err := app.open(cmd, g)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := e.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(cmd.Context(), e)
}

// subjectID returns the signed-in user's id, or "" when signed out.
func (e *env) subjectID(ctx context.Context) string {
	sess, err := e.sessions.Current(ctx)
	if err != nil || sess == nil {
		return ""
	}
	return sess.SubjectID
}
