package repl

import (
	"context"
	"fmt"
	"strings"

	"github.com/manash/bizforge/pkg/models"
)

type Command interface {
	Name() string
	Aliases() []string
	Description() string
	Usage() string
	Execute(ctx context.Context, r *REPL, args []string) error
}

func allCommands() []Command {
	return []Command{
		&SentimentCommand{},
		&NamesCommand{},
		&VoiceCommand{},
		&HelpCommand{},
		&QuitCommand{},
	}
}

func (r *REPL) registerCommands() {
	for _, cmd := range allCommands() {
		r.commands[cmd.Name()] = cmd
		for _, alias := range cmd.Aliases() {
			r.commands[alias] = cmd
		}
	}
}

// SentimentCommand analyzes a review without leaving the chat.
type SentimentCommand struct{}

func (c *SentimentCommand) Name() string        { return "sentiment" }
func (c *SentimentCommand) Aliases() []string   { return []string{"review"} }
func (c *SentimentCommand) Description() string { return "Analyze the sentiment of a customer review" }
func (c *SentimentCommand) Usage() string       { return "/sentiment <review text>" }

func (c *SentimentCommand) Execute(ctx context.Context, r *REPL, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: %s", c.Usage())
	}
	return r.invoke(ctx, models.KindSentiment, models.Inputs{Text: strings.Join(args, " ")})
}

// NamesCommand suggests brand names from keywords.
type NamesCommand struct{}

func (c *NamesCommand) Name() string      { return "names" }
func (c *NamesCommand) Aliases() []string { return []string{"brand"} }
func (c *NamesCommand) Description() string {
	return "Suggest brand names from comma separated keywords"
}
func (c *NamesCommand) Usage() string { return "/names <keywords>" }

func (c *NamesCommand) Execute(ctx context.Context, r *REPL, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: %s", c.Usage())
	}
	return r.invoke(ctx, models.KindBrandName, models.Inputs{Keywords: strings.Join(args, " ")})
}

// VoiceCommand shows the saved brand voice.
type VoiceCommand struct{}

func (c *VoiceCommand) Name() string        { return "voice" }
func (c *VoiceCommand) Aliases() []string   { return nil }
func (c *VoiceCommand) Description() string { return "Show the saved brand voice" }
func (c *VoiceCommand) Usage() string       { return "/voice" }

func (c *VoiceCommand) Execute(ctx context.Context, r *REPL, _ []string) error {
	if r.profile == nil {
		fmt.Fprintln(r.out, "No brand voice available.")
		return nil
	}
	p, err := r.profile.Current(ctx)
	if err != nil {
		return err
	}
	if p.IsZero() {
		fmt.Fprintln(r.out, "No brand voice saved yet. Use 'bizforge voice set' to create one.")
		return nil
	}

	fmt.Fprintf(r.out, "  Personality:     %s\n", p.Personality)
	fmt.Fprintf(r.out, "  Industry:        %s\n", p.Industry)
	fmt.Fprintf(r.out, "  Target audience: %s\n", p.TargetAudience)
	fmt.Fprintf(r.out, "  Tone:            %s\n", p.Tone)
	if r.useVoice {
		fmt.Fprintln(r.out, "  (applied to blank industry and tone inputs)")
	}
	return nil
}

// HelpCommand lists commands
type HelpCommand struct{}

func (c *HelpCommand) Name() string        { return "help" }
func (c *HelpCommand) Aliases() []string   { return []string{"?"} }
func (c *HelpCommand) Description() string { return "Show available commands" }
func (c *HelpCommand) Usage() string       { return "/help" }

func (c *HelpCommand) Execute(_ context.Context, r *REPL, _ []string) error {
	fmt.Fprintln(r.out, "Anything not starting with '/' is sent as a chat message.")
	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, "Available commands:")
	fmt.Fprintln(r.out)

	for _, cmd := range allCommands() {
		aliases := ""
		if len(cmd.Aliases()) > 0 {
			aliases = fmt.Sprintf(" (%s)", strings.Join(cmd.Aliases(), ", "))
		}
		fmt.Fprintf(r.out, "  %-20s%s\n", cmd.Name()+aliases, cmd.Description())
		fmt.Fprintf(r.out, "                      Usage: %s\n", cmd.Usage())
	}

	return nil
}

// QuitCommand exits the REPL
type QuitCommand struct{}

func (c *QuitCommand) Name() string        { return "quit" }
func (c *QuitCommand) Aliases() []string   { return []string{"exit", "q"} }
func (c *QuitCommand) Description() string { return "Exit the chat" }
func (c *QuitCommand) Usage() string       { return "/quit" }

func (c *QuitCommand) Execute(_ context.Context, r *REPL, _ []string) error {
	fmt.Fprintln(r.out, "Goodbye!")
	r.Stop()
	return nil
}
