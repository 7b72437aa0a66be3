// Package cli implements the formcontainer command line: it mounts the
// modules of a layout into one container and inspects, validates or fills
// them.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	formcontainer "github.com/goliatone/go-formcontainer"
	"github.com/goliatone/go-formcontainer/internal/logging"
	"github.com/goliatone/go-formcontainer/pkg/config"
	"github.com/goliatone/go-formcontainer/pkg/layout"
	"github.com/goliatone/go-formcontainer/pkg/memform"
)

const appName = "formcontainer"

// ErrValidationFailed is returned when validation reports field errors.
var ErrValidationFailed = errors.New("cli: validation failed")

type app struct {
	stdout   io.Writer
	stderr   io.Writer
	prompter Prompter

	configPath string
	logLevel   string
	layoutPath string

	cfg    config.Config
	logger zerolog.Logger
}

// Option customises the root command, mostly for tests.
type Option func(*app)

// WithOutput redirects command output and logs.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(a *app) {
		a.stdout = stdout
		a.stderr = stderr
	}
}

// WithPrompter replaces the interactive survey prompter.
func WithPrompter(p Prompter) Option {
	return func(a *app) {
		a.prompter = p
	}
}

// NewRootCommand builds the command tree.
func NewRootCommand(options ...Option) *cobra.Command {
	a := &app{
		stdout:   os.Stdout,
		stderr:   os.Stderr,
		prompter: surveyPrompter{},
		logger:   zerolog.Nop(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(a)
		}
	}

	root := &cobra.Command{
		Use:           appName,
		Short:         "Coordinate several form modules as one logical form",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "config file (default ./formcontainer.{yaml,toml,json})")
	flags.StringVar(&a.logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	flags.StringVar(&a.layoutPath, "layout", "", "layout directory, layout file or OpenAPI document")

	root.AddCommand(a.fieldsCommand(), a.validateCommand(), a.fillCommand())
	return root
}

// Execute runs the CLI with the process arguments.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

func (a *app) setup() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	if a.layoutPath != "" {
		cfg.Layout = a.layoutPath
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logging.New(appName, cfg.Level(), a.stderr)
	return nil
}

// session is a container with the memform modules mounted from the layout.
type session struct {
	container *formcontainer.Container
	modules   map[string]*memform.Module
}

func (a *app) open(ctx context.Context) (*session, error) {
	path := strings.TrimSpace(a.cfg.Layout)
	if path == "" {
		return nil, errors.New("cli: no layout given (use --layout or the layout config key)")
	}
	l, err := layout.LoadPath(ctx, path)
	if err != nil {
		return nil, err
	}
	if l.Empty() {
		return nil, fmt.Errorf("cli: layout %s defines no modules", path)
	}

	defs := make([]memform.Definition, len(l.Modules))
	for i, def := range l.Modules {
		def.Sanitize = def.Sanitize || a.cfg.Sanitize
		defs[i] = def
	}

	c := formcontainer.New(a.cfg.ContainerOptions(a.logger)...)
	mods, err := formcontainer.MountDefinitions(c, defs, memform.WithLogger(a.logger))
	if err != nil {
		return nil, err
	}
	s := &session{container: c, modules: make(map[string]*memform.Module, len(mods))}
	for _, m := range mods {
		s.modules[m.Code()] = m
	}
	a.logger.Debug().Int("modules", len(mods)).Str("layout", path).Msg("cli: layout mounted")
	return s, nil
}

func (s *session) field(id string) (*memform.Module, memform.FieldDefinition, bool) {
	code, ok := s.container.Owner(id)
	if !ok {
		return nil, memform.FieldDefinition{}, false
	}
	m, ok := s.modules[code]
	if !ok {
		return nil, memform.FieldDefinition{}, false
	}
	def, ok := m.Definition().Field(id)
	return m, def, ok
}
