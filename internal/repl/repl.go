package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/manash/bizforge/internal/render"
	"github.com/manash/bizforge/internal/workflow"
	"github.com/manash/bizforge/pkg/models"
)

// commandPrefix marks a line as a command; anything else is a chat message.
const commandPrefix = "/"

// Invoker runs workflows. *orchestrator.Orchestrator satisfies it.
type Invoker interface {
	Invoke(ctx context.Context, kind models.Kind, in models.Inputs) (models.Result, error)
}

// ProfileSource reads the saved brand voice.
type ProfileSource interface {
	Current(ctx context.Context) (models.BrandVoiceProfile, error)
}

type REPL struct {
	in       io.Reader
	out      io.Writer
	err      io.Writer
	invoker  Invoker
	renderer *render.Renderer
	profile  ProfileSource
	useVoice bool
	userName string
	commands map[string]Command
	running  bool
}

type Config struct {
	In       io.Reader
	Out      io.Writer
	Err      io.Writer
	Invoker  Invoker
	Renderer *render.Renderer
	// Profile may be nil when no brand voice is available.
	Profile ProfileSource
	// UseVoice fills blank industry and tone inputs from the saved profile.
	UseVoice bool
	// UserName personalizes the greeting.
	UserName string
}

func New(cfg *Config) *REPL {
	renderer := cfg.Renderer
	if renderer == nil {
		renderer = render.New(cfg.Out, render.Options{Plain: true})
	}
	r := &REPL{
		in:       cfg.In,
		out:      cfg.Out,
		err:      cfg.Err,
		invoker:  cfg.Invoker,
		renderer: renderer,
		profile:  cfg.Profile,
		useVoice: cfg.UseVoice,
		userName: cfg.UserName,
		commands: make(map[string]Command),
	}
	r.registerCommands()
	return r
}

func (r *REPL) Run(ctx context.Context) error {
	r.running = true
	r.printWelcome()

	scanner := bufio.NewScanner(r.in)
	for r.running {
		r.printPrompt()
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if err := r.execute(ctx, line); err != nil {
			fmt.Fprintf(r.err, "Error: %v\n", err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	return scanner.Err()
}

func (r *REPL) execute(ctx context.Context, line string) error {
	if !strings.HasPrefix(line, commandPrefix) {
		return r.invoke(ctx, models.KindChat, models.Inputs{Message: line})
	}

	parts := parseCommand(strings.TrimPrefix(line, commandPrefix))
	if len(parts) == 0 {
		return nil
	}

	cmdName := strings.ToLower(parts[0])
	args := parts[1:]

	cmd, ok := r.commands[cmdName]
	if !ok {
		return fmt.Errorf("unknown command: %s (type '/help' for available commands)", cmdName)
	}

	return cmd.Execute(ctx, r, args)
}

// invoke runs one workflow and prints its result. The loop reads the next
// line only after this returns, so one message is in flight at a time.
func (r *REPL) invoke(ctx context.Context, kind models.Kind, in models.Inputs) error {
	if r.useVoice && r.profile != nil {
		if p, err := r.profile.Current(ctx); err == nil {
			in = workflow.ApplyProfile(in, p)
		}
	}

	result, err := r.invoker.Invoke(ctx, kind, in)
	if errors.Is(err, models.ErrBusy) {
		fmt.Fprintln(r.out, "Still working on the previous request.")
		return nil
	}

	var ve *models.ValidationError
	if errors.As(err, &ve) {
		r.renderer.Error(ve.UserMessage())
		return nil
	}
	if err != nil {
		return err
	}

	r.renderer.Result(result)
	return nil
}

func (r *REPL) Stop() {
	r.running = false
}

func (r *REPL) printWelcome() {
	if r.userName != "" {
		fmt.Fprintf(r.out, "Welcome back, %s!\n", r.userName)
	}
	fmt.Fprintln(r.out, "bizforge branding chat")
	fmt.Fprintln(r.out, "Type a message to chat, '/help' for commands, '/quit' to exit.")
	fmt.Fprintln(r.out)
}

func (r *REPL) printPrompt() {
	fmt.Fprint(r.out, "bizforge> ")
}

func parseCommand(line string) []string {
	var parts []string
	var current strings.Builder
	inQuotes := false
	quoteChar := rune(0)

	for _, ch := range line {
		switch {
		case ch == '"' || ch == '\'':
			if inQuotes && ch == quoteChar {
				inQuotes = false
				quoteChar = 0
			} else if !inQuotes {
				inQuotes = true
				quoteChar = ch
			} else {
				current.WriteRune(ch)
			}
		case ch == ' ' && !inQuotes:
			if current.Len() > 0 {
				parts = append(parts, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(ch)
		}
	}

	if current.Len() > 0 {
		parts = append(parts, current.String())
	}

	return parts
}
