// Package deploy uploads a theme next to the live one and swaps them, keeping
// the previous version as a timestamped backup.
//
// A run goes through these states, one remote request at a time:
//
//	idle -> connecting -> backup-root-ready -> uploading -> swapping-out -> swapping-in -> complete
//
// and ends in failed as soon as any step fails. Nothing is retried or cleaned
// up. A failure in swapping-in leaves the live theme in the backup folder and
// the new one in the staging folder, to be moved by hand.
package deploy

import (
	"context"
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/wpdeploy/manifest"
	"github.com/wpdeploy/target"
	"github.com/wpdeploy/target/types"
)

// Failure is returned when a run ends in StateFailed
type Failure struct {
	// State is the state the run was in when it failed
	State State
	Plan  Plan
	Err   error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("deployment failed while %s: %v", f.State, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }
func (f *Failure) Cause() error  { return f.Err }

// Deployer runs deployments of one configured theme
type Deployer struct {
	cfg      types.Config
	dial     target.Dialer
	clock    clockwork.Clock
	reporter Reporter
	log      logrus.FieldLogger

	state State
}

// Option configures a Deployer
type Option func(*Deployer)

// WithDialer replaces target.Dial
func WithDialer(dial target.Dialer) Option {
	return func(d *Deployer) { d.dial = dial }
}

// WithClock sets the clock used to name the backup folder
func WithClock(c clockwork.Clock) Option {
	return func(d *Deployer) { d.clock = c }
}

// WithReporter sets the receiver of progress events
func WithReporter(r Reporter) Option {
	return func(d *Deployer) { d.reporter = r }
}

// WithLogger sets the logger
func WithLogger(l logrus.FieldLogger) Option {
	return func(d *Deployer) { d.log = l }
}

// New returns a Deployer for cfg
func New(cfg types.Config, opts ...Option) *Deployer {
	d := &Deployer{
		cfg:      cfg,
		dial:     target.Dial,
		clock:    clockwork.NewRealClock(),
		reporter: discard{},
		log:      logrus.StandardLogger(),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// State returns the state of the last run
func (d *Deployer) State() State {
	return d.state
}

// Deploy reads the local theme of cfg and deploys it
func Deploy(ctx context.Context, cfg types.Config, opts ...Option) (Plan, error) {
	f, err := manifest.NewFilter(cfg.Ignore)
	if err != nil {
		return Plan{}, &types.ConfigError{Field: "ignore", Err: err}
	}

	m, err := manifest.Enumerate(cfg.ThemeLocal(), f)
	if err != nil {
		return Plan{}, err
	}

	return New(cfg, opts...).Run(ctx, m)
}

// Run deploys m, whose first entry must be the theme root
func (d *Deployer) Run(ctx context.Context, m types.Manifest) (Plan, error) {
	d.state = StateIdle
	if len(m) == 0 || m[0].RelPath != "." || !m[0].Dir() {
		return Plan{}, errors.New("manifest does not start with the theme root")
	}

	log := d.log.WithFields(logrus.Fields{
		"host":  d.cfg.Host.Addr(),
		"theme": d.cfg.Theme,
	})

	d.enter(StateConnecting, Plan{})
	s, err := d.dial(ctx, d.cfg.Host)
	if err != nil {
		return Plan{}, d.fail(Plan{}, err)
	}

	closed := false
	closeSession := func() {
		if closed {
			return
		}
		closed = true
		if err := s.Close(); err != nil {
			log.WithError(err).Warn("could not close the session")
		}
	}
	defer closeSession()

	plan := NewPlan(d.cfg, d.clock.Now())
	log = log.WithField("backup", plan.BackupRoot)

	err = s.MakeDir(ctx, plan.BackupBase)
	if err != nil {
		return plan, d.fail(plan, err)
	}
	d.enter(StateBackupRootReady, plan)

	d.enter(StateUploading, plan)
	for i, e := range m {
		remote := plan.StagingPath(e)
		if e.Dir() {
			err = s.MakeDir(ctx, remote)
		} else {
			err = s.Upload(ctx, e.LocalPath, remote)
		}
		if err != nil {
			return plan, d.fail(plan, err)
		}

		d.reporter.Report(Event{Type: EventItem, State: d.state, Plan: plan, Entry: e, Done: i + 1, Total: len(m)})
	}
	log.WithField("entries", len(m)).Info("theme uploaded")

	d.enter(StateSwappingOut, plan)
	if d.cfg.Initial {
		log.Info("initial deployment, no live theme to back up")
	} else {
		err = s.Rename(ctx, plan.LiveRoot, plan.BackupRoot)
		if err != nil {
			return plan, d.fail(plan, err)
		}
	}

	d.enter(StateSwappingIn, plan)
	err = s.Rename(ctx, plan.StagingRoot, plan.LiveRoot)
	if err != nil {
		log.WithField("staging", plan.StagingRoot).Error("the live theme is missing, move the backup or the staging folder back by hand")
		return plan, d.fail(plan, err)
	}

	closeSession()
	d.state = StateComplete
	d.reporter.Report(Event{Type: EventCompleted, State: StateComplete, Plan: plan})
	log.Info("deployment complete")

	return plan, nil
}

func (d *Deployer) enter(s State, plan Plan) {
	d.state = s
	d.log.WithField("state", s).Debug("entering state")
	d.reporter.Report(Event{Type: EventStarted, State: s, Plan: plan})
}

func (d *Deployer) fail(plan Plan, err error) error {
	f := &Failure{State: d.state, Plan: plan, Err: err}
	d.state = StateFailed
	d.reporter.Report(Event{Type: EventFailed, State: f.State, Plan: plan, Err: err})
	return f
}
