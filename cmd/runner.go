package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/comptaflow/compta/internal/services"
	"github.com/comptaflow/compta/internal/session"
	"github.com/comptaflow/compta/internal/shared"
	"github.com/comptaflow/compta/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config   *shared.Config
	backend  services.Backend
	api      *services.APIService
	store    *session.Store
	workflow *tasks.Workflow
	gate     *tasks.EligibilityGate
	engine   *tasks.Engine
	logger   *log.Logger
	output   io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config   *shared.Config
	Backend  services.Backend
	API      *services.APIService
	Store    *session.Store
	Workflow *tasks.Workflow
	Gate     *tasks.EligibilityGate
	Engine   *tasks.Engine
	Logger   *log.Logger
	Output   io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Workflow == nil && opts.Backend != nil {
		opts.Workflow = tasks.NewWorkflow(opts.Backend, opts.Logger)
	}
	if opts.Engine == nil && opts.Backend != nil {
		opts.Engine = tasks.NewEngine(opts.Backend, opts.Logger)
	}

	return &Runner{
		config:   opts.Config,
		backend:  opts.Backend,
		api:      opts.API,
		store:    opts.Store,
		workflow: opts.Workflow,
		gate:     opts.Gate,
		engine:   opts.Engine,
		logger:   opts.Logger,
		output:   opts.Output,
	}
}

// SetLogger swaps the runner's logger, typically for file logging during TUI sessions.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, convertCommand, historyCommand, banksCommand,
		usageCommand, billingCommand, supportCommand, debugCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// requireAuth guards commands that only make sense with a signed-in session.
func (r *Runner) requireAuth() error {
	if r.store == nil || !r.store.State().Authenticated() {
		return fmt.Errorf("%w: run 'compta auth login' first", shared.ErrNotAuthenticated)
	}
	return nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
