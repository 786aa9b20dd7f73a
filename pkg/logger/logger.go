package logx

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Debug        bool   `split_words:"true" default:"false"`
	PrettyFormat bool   `split_words:"true" default:"false"`
	Level        string `split_words:"true"`
	Service      string `split_words:"true" default:"insurance-media-router"`
}

var DefaultConfig = &Config{
	Debug:        false,
	PrettyFormat: false,
	Service:      "insurance-media-router",
}

func safe(opts ...Config) *Config {
	if len(opts) == 0 {
		return DefaultConfig
	}
	return &opts[0]
}

func Init(opts ...Config) {
	InitWriter(os.Stdout, opts...)
}

// InitWriter installs the global logger on w. Level, when set and valid,
// overrides Debug.
func InitWriter(w io.Writer, opts ...Config) {
	conf := safe(opts...)

	if conf.PrettyFormat {
		w = zerolog.ConsoleWriter{Out: w}
	}
	ctx := zerolog.New(w).With().Timestamp()
	if service := strings.TrimSpace(conf.Service); service != "" {
		ctx = ctx.Str("service", service)
	}
	log.Logger = ctx.Logger().Level(resolveLevel(conf))

	log.Logger = log.Logger.With().Caller().Stack().Logger()
}

func resolveLevel(conf *Config) zerolog.Level {
	if raw := strings.TrimSpace(conf.Level); raw != "" {
		if lvl, err := zerolog.ParseLevel(strings.ToLower(raw)); err == nil {
			return lvl
		}
	}
	if conf.Debug {
		return zerolog.DebugLevel
	}
	return zerolog.InfoLevel
}
