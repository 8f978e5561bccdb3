package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

type ctxKey struct{}

// Options describes the process logger.
type Options struct {
	Service string
	Version string
	Level   string
	// Text selects the human-readable handler; JSON otherwise.
	Text bool
	// Output defaults to stdout.
	Output io.Writer
}

// OptionsFor builds Options from the usual service settings. Development
// logs as text.
func OptionsFor(service, version, level, appEnv string) Options {
	return Options{
		Service: service,
		Version: version,
		Level:   level,
		Text:    strings.EqualFold(appEnv, "development"),
	}
}

// New builds a logger without touching the process default. Phone numbers
// and credentials are redacted at the handler so call sites can log them
// by key.
func New(opts Options) *slog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	hopts := &slog.HandlerOptions{
		Level:       parseLevel(opts.Level),
		ReplaceAttr: redact,
	}

	var h slog.Handler
	if opts.Text {
		h = slog.NewTextHandler(out, hopts)
	} else {
		h = slog.NewJSONHandler(out, hopts)
	}

	l := slog.New(h)
	if opts.Service != "" {
		l = l.With("service", opts.Service)
	}
	if opts.Version != "" {
		l = l.With("version", opts.Version)
	}
	return l
}

// Init builds the logger and installs it as the slog default.
func Init(opts Options) *slog.Logger {
	l := New(opts)
	slog.SetDefault(l)
	return l
}

func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}

func WithLogger(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

var secretKeys = map[string]bool{
	"token":         true,
	"client_token":  true,
	"authorization": true,
	"api_key":       true,
	"apikey":        true,
}

func redact(_ []string, a slog.Attr) slog.Attr {
	key := strings.ToLower(a.Key)
	switch {
	case key == "phone" && a.Value.Kind() == slog.KindString:
		return slog.String(a.Key, MaskPhone(a.Value.String()))
	case secretKeys[key]:
		return slog.String(a.Key, "[redacted]")
	}
	return a
}

func parseLevel(s string) slog.Level {
	var lvl slog.Level
	if s == "warning" {
		s = "warn"
	}
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
