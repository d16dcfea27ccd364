// Package render prints workflow results to a terminal.
package render

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/manash/bizforge/internal/security"
	"github.com/manash/bizforge/pkg/models"
)

const defaultWidth = 80

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	badgeStyles = map[models.Sentiment]lipgloss.Style{
		models.SentimentPositive: lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true),
		models.SentimentNeutral:  lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true),
		models.SentimentNegative: lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
	}
)

type Options struct {
	// Plain disables markdown styling; results are printed as returned.
	Plain bool
	// InlineImages enables kitty graphics output for data URI logos.
	InlineImages bool
	Width        int
}

type Renderer struct {
	out          io.Writer
	md           *glamour.TermRenderer
	inlineImages bool
}

func New(out io.Writer, opts Options) *Renderer {
	r := &Renderer{out: out, inlineImages: opts.InlineImages}
	if opts.Plain {
		return r
	}

	width := opts.Width
	if width <= 0 {
		width = defaultWidth
	}
	md, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err == nil {
		r.md = md
	}
	return r
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// TerminalWidth returns the width of w, or the default when unknown.
func TerminalWidth(w io.Writer) int {
	if f, ok := w.(*os.File); ok {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
			return width
		}
	}
	return defaultWidth
}

func (r *Renderer) markdown(text string) string {
	if r.md == nil {
		return strings.TrimSpace(text) + "\n"
	}
	rendered, err := r.md.Render(text)
	if err != nil {
		return strings.TrimSpace(text) + "\n"
	}
	return rendered
}

// Result prints one workflow outcome.
func (r *Renderer) Result(res models.Result) {
	if !res.Success {
		r.Error(res.ErrorMessage)
		return
	}

	fmt.Fprintln(r.out, titleStyle.Render(res.Kind.DisplayName()))

	switch res.Kind {
	case models.KindSentiment:
		r.sentiment(res)
	case models.KindLogo:
		r.logo(res)
	case models.KindContent:
		fmt.Fprint(r.out, r.markdown(res.Primary))
		r.previews(res.Primary)
	default:
		fmt.Fprint(r.out, r.markdown(res.Primary))
	}
}

func (r *Renderer) Error(message string) {
	fmt.Fprintln(r.out, errorStyle.Render("Error: ")+message)
}

func (r *Renderer) sentiment(res models.Result) {
	if res.Sentiment != "" {
		fmt.Fprintln(r.out, Badge(res.Sentiment))
	}
	if res.Confidence != nil {
		fmt.Fprintf(r.out, "%s %s\n", labelStyle.Render("Confidence:"), FormatConfidence(*res.Confidence))
	}
	if res.ImprovedReview != "" {
		fmt.Fprintln(r.out, labelStyle.Render("Improved Review:"))
		fmt.Fprintln(r.out, res.ImprovedReview)
		return
	}
	fmt.Fprintln(r.out, labelStyle.Render("Analysis:"))
	fmt.Fprint(r.out, r.markdown(res.Primary))
}

func (r *Renderer) logo(res models.Result) {
	if res.Primary != "" {
		fmt.Fprint(r.out, r.markdown(res.Primary))
	}
	if res.ImageRef == "" {
		return
	}

	mediaType, data, err := security.DecodeDataURI(res.ImageRef)
	if err != nil {
		// Remote references are shown, never fetched here.
		fmt.Fprintf(r.out, "%s %s\n", labelStyle.Render("Image:"), res.ImageRef)
		return
	}

	if r.inlineImages {
		if err := NewKittyEncoder(r.out).Encode(data); err == nil {
			fmt.Fprintln(r.out)
			return
		}
	}
	fmt.Fprintln(r.out, dimStyle.Render(fmt.Sprintf("[%s image, %d bytes; use --save to write it to a file]", mediaType, len(data))))
}

func (r *Renderer) previews(text string) {
	insta, linkedin := SocialPreviews(text)
	fmt.Fprintln(r.out, labelStyle.Render("Instagram preview:"))
	fmt.Fprintln(r.out, insta)
	fmt.Fprintln(r.out, labelStyle.Render("LinkedIn preview:"))
	fmt.Fprintln(r.out, linkedin)
}

// Badge renders a sentiment label in its color.
func Badge(s models.Sentiment) string {
	style, ok := badgeStyles[s]
	if !ok {
		return strings.ToUpper(string(s))
	}
	return style.Render(strings.ToUpper(string(s)))
}

// FormatConfidence renders a [0,1] confidence as a percentage with two
// decimals.
func FormatConfidence(c float64) string {
	return fmt.Sprintf("%.2f%%", c*100)
}

const (
	instagramPreviewLen = 125
	linkedinPreviewLen  = 300
)

// SocialPreviews returns the caption as Instagram and LinkedIn show it
// before expansion.
func SocialPreviews(text string) (instagram, linkedin string) {
	runes := []rune(text)
	instagram, linkedin = text, text
	if len(runes) > instagramPreviewLen {
		instagram = string(runes[:instagramPreviewLen]) + "... more"
	}
	if len(runes) > linkedinPreviewLen {
		linkedin = string(runes[:linkedinPreviewLen]) + "..."
	}
	return instagram, linkedin
}

// GuideFilename is the download name for an exported brand guide.
func GuideFilename(displayName string) string {
	name := strings.Join(strings.Fields(displayName), "_")
	if name == "" {
		name = "Brand"
	}
	return security.SanitizeFilename(name + "_Guide.pdf")
}
