package render

import (
	"encoding/base64"
	"fmt"
	"io"
	"strings"
)

const (
	escapeStart = "\x1b_G"
	escapeEnd   = "\x1b\\"
	// kitty accepts at most 4096 bytes of base64 payload per escape.
	framePayload = 4096
)

// KittyEncoder writes PNG data using the kitty graphics protocol.
type KittyEncoder struct {
	out io.Writer
}

func NewKittyEncoder(out io.Writer) *KittyEncoder {
	return &KittyEncoder{out: out}
}

// Encode streams data as base64 framed into escape sequences. The first
// frame carries the transmit-and-display header; every frame but the last
// sets m=1.
func (e *KittyEncoder) Encode(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("no image data")
	}

	fw := &frameWriter{out: e.out}
	enc := base64.NewEncoder(base64.StdEncoding, fw)
	if _, err := enc.Write(data); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	return fw.finish()
}

// frameWriter buffers base64 text and emits a frame once it knows more
// payload follows, so the final frame is always the one marked m=0.
type frameWriter struct {
	out    io.Writer
	buf    []byte
	frames int
}

func (w *frameWriter) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	for len(w.buf) > framePayload {
		if err := w.emit(w.buf[:framePayload], true); err != nil {
			return 0, err
		}
		w.buf = w.buf[framePayload:]
	}
	return len(p), nil
}

func (w *frameWriter) finish() error {
	if len(w.buf) == 0 {
		return nil
	}
	err := w.emit(w.buf, false)
	w.buf = nil
	return err
}

func (w *frameWriter) emit(payload []byte, more bool) error {
	var header string
	switch {
	case w.frames == 0 && more:
		header = "a=T,f=100,q=2,m=1"
	case w.frames == 0:
		header = "a=T,f=100,q=2"
	case more:
		header = "m=1"
	default:
		header = "m=0"
	}
	w.frames++

	_, err := fmt.Fprintf(w.out, "%s%s;%s%s", escapeStart, header, payload, escapeEnd)
	return err
}

// SupportsInlineImages reports whether the terminal described by getenv
// understands the kitty graphics protocol.
func SupportsInlineImages(getenv func(string) string) bool {
	switch strings.ToLower(getenv("TERM_PROGRAM")) {
	case "kitty", "ghostty", "wezterm":
		return true
	}

	if getenv("KITTY_WINDOW_ID") != "" {
		return true
	}

	t := strings.ToLower(getenv("TERM"))
	return strings.Contains(t, "kitty") || strings.Contains(t, "ghostty")
}
