package xsdgen

import (
	"net/http"

	chlog "charm.land/log/v2"
)

// A Config holds user-defined overrides that govern one code-generation
// run: which namespaces to emit, the generated package's name, where
// diagnostic output goes, and the HTTP client schema-import resolution
// fetches dependencies through.
type Config struct {
	logger     Logger
	loglevel   int
	namespaces []string
	pkgname    string
	client     *http.Client
}

func (cfg *Config) logf(format string, v ...interface{}) {
	if cfg.logger != nil && cfg.loglevel > 0 {
		cfg.logger.Printf(format, v...)
	}
}

func (cfg *Config) debugf(format string, v ...interface{}) {
	if cfg.logger != nil && cfg.loglevel > 1 {
		cfg.logger.Printf(format, v...)
	}
}

// An Option configures a Config. Calling it returns an Option that
// reverts the change, the same reversible pattern the rest of the
// package's functional options follow.
type Option func(*Config) Option

// DefaultOptions are applied to every Config returned by NewConfig
// before the caller's own options.
var DefaultOptions = []Option{
	PackageName("xsdoutput"),
	LogLevel(1),
}

// NewConfig builds a Config from DefaultOptions followed by opts.
func NewConfig(opts ...Option) *Config {
	cfg := new(Config)
	cfg.Option(DefaultOptions...)
	cfg.Option(opts...)
	return cfg
}

// Option applies opts to cfg in order, returning an Option that undoes
// the last one applied.
func (cfg *Config) Option(opts ...Option) (previous Option) {
	for _, opt := range opts {
		previous = opt(cfg)
	}
	return previous
}

// PackageName sets the package clause of the generated file.
func PackageName(name string) Option {
	return func(cfg *Config) Option {
		prev := cfg.pkgname
		cfg.pkgname = name
		return PackageName(prev)
	}
}

// Namespaces sets the target namespaces whose schemas SelectPrimary
// returns as primary. Generate emits root elements only for the primary
// schema it is given, and emits the named complex types of that schema
// and of every extra schema. An empty list (the default) is replaced in
// LoadSchemas by the target namespace of every loaded document.
func Namespaces(xmlns ...string) Option {
	return func(cfg *Config) Option {
		prev := cfg.namespaces
		cfg.namespaces = xmlns
		return Namespaces(prev...)
	}
}

// LogOutput directs the generator's diagnostic output (identifier
// collisions, progress messages) to l.
func LogOutput(l Logger) Option {
	return func(cfg *Config) Option {
		prev := cfg.logger
		cfg.logger = l
		return LogOutput(prev)
	}
}

// LogLevel sets the verbosity of diagnostic output: 1 logs progress
// messages, levels above 1 also log debug detail (namespace defaulting,
// schema fetches). Keyword-collision warnings from the annotator are
// logged at every level, including 0.
func LogLevel(level int) Option {
	return func(cfg *Config) Option {
		prev := cfg.loglevel
		cfg.loglevel = level
		return LogLevel(prev)
	}
}

// WithHTTPClient directs schema-import resolution (LoadSchemas'
// resolveDependencies walk) to fetch remote schemas through cli instead
// of http.DefaultClient; tests use it with
// internal/testutil.FakeClient.
func WithHTTPClient(cli *http.Client) Option {
	return func(cfg *Config) Option {
		prev := cfg.client
		cfg.client = cli
		return WithHTTPClient(prev)
	}
}

// charmLogger adapts a charm.land/log/v2 Logger to the Printf-shaped
// Logger interface the generator and internal/namegen use internally.
type charmLogger struct {
	l *chlog.Logger
}

func (c charmLogger) Printf(format string, args ...interface{}) {
	c.l.Infof(format, args...)
}

// WithLogger routes diagnostics through a charm.land/log/v2 Logger,
// the logging library uxsdc's command-line frontend uses everywhere
// else.
func WithLogger(l *chlog.Logger) Option {
	return LogOutput(charmLogger{l: l})
}
