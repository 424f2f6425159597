package bootstrap

import (
	"bytes"
	"context"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/wpdeploy/deploy"
	"github.com/wpdeploy/manifest"
	"github.com/wpdeploy/report"
	"github.com/wpdeploy/target/types"
	yaml "gopkg.in/yaml.v3"
)

const (
	DefaultConfigFile = "wordpress-deploy.yaml"

	DefaultHost       = "localhost"
	DefaultUser       = "anonymous"
	DefaultPassword   = "secret"
	DefaultTheme      = "my-wordpress-theme"
	DefaultPathLocal  = "./wp-content/themes"
	DefaultPathRemote = "./wp-content/themes"
	DefaultBackup     = "./.wordpress-deploy"
	DefaultTimeout    = 30 * time.Second
)

// Overrides are the values given on the command line. They win over the
// config file. Nil fields are unset.
type Overrides struct {
	Host       *string
	Port       *int
	User       *string
	Password   *string
	Protocol   *string
	Theme      *string
	PathLocal  *string
	PathRemote *string
	Backup     *string
	KnownHosts *string
	Initial    *bool

	// Ignore replaces the patterns of the config file when not nil
	Ignore []string
}

type Client struct {
	Config types.Config

	Out io.Writer
	Log logrus.FieldLogger
}

// Run loads the configuration from cpath and shows what is going to be deployed
func (bs *Client) Run(cpath string, o Overrides) error {
	cfg, err := Load(cpath, o)
	if err != nil {
		return err
	}

	bs.Config = cfg
	report.Banner(bs.out(), cfg)
	return nil
}

// Apply deploys the loaded configuration
func (bs *Client) Apply(ctx context.Context) error {
	log := bs.Log
	if log == nil {
		log = logrus.StandardLogger()
	}

	console := report.NewConsole(bs.out(), bs.Config.Host)
	_, err := deploy.Deploy(ctx, bs.Config,
		deploy.WithLogger(log),
		deploy.WithReporter(report.Multi{console, report.Log{Logger: log}}))

	// failures of a run are drawn by the console reporter
	var eerr *types.EnumerationError
	var cerr *types.ConfigError
	switch {
	case errors.As(err, &eerr):
		report.Error(bs.out(), "Theme not found", "Location: "+eerr.Path+"\n"+eerr.Err.Error())
	case errors.As(err, &cerr):
		report.Error(bs.out(), "Invalid configuration", cerr.Error())
	}

	return err
}

func (bs *Client) out() io.Writer {
	if bs.Out == nil {
		return os.Stdout
	}
	return bs.Out
}

// Load reads the config file at cpath, applies the overrides, then the
// defaults, and validates the result
func Load(cpath string, o Overrides) (types.Config, error) {
	cfg, err := readConfig(cpath)
	if err != nil {
		return cfg, err
	}

	o.apply(&cfg)
	applyDefaults(&cfg)

	err = normalize(&cfg)
	if err != nil {
		return cfg, err
	}

	err = Validate(cfg)
	if err != nil {
		return cfg, err
	}

	return cfg, nil
}

func readConfig(cpath string) (types.Config, error) {
	var cfg types.Config

	p, err := homedir.Expand(cpath)
	if err != nil {
		return cfg, &types.ConfigError{Field: "configFile", Err: err}
	}

	content, err := os.ReadFile(p)
	if err != nil {
		return cfg, &types.ConfigError{Field: "configFile", Err: errors.Wrapf(err, "not able to read %s", p)}
	}

	dec := yaml.NewDecoder(bytes.NewReader(content))
	dec.KnownFields(true)

	err = dec.Decode(&cfg)
	if err != nil && err != io.EOF {
		return cfg, &types.ConfigError{Field: "configFile", Err: errors.Wrapf(err, "config file %s is corrupted", p)}
	}

	return cfg, nil
}

func (o Overrides) apply(cfg *types.Config) {
	setString(&cfg.Host.Address, o.Host)
	setString(&cfg.Host.User, o.User)
	setString(&cfg.Host.Password, o.Password)
	setString(&cfg.Host.KnownHosts, o.KnownHosts)
	setString(&cfg.Theme, o.Theme)
	setString(&cfg.PathLocal, o.PathLocal)
	setString(&cfg.PathRemote, o.PathRemote)
	setString(&cfg.Backup, o.Backup)

	if o.Protocol != nil {
		cfg.Host.Protocol = types.Protocol(*o.Protocol)
	}
	if o.Port != nil {
		cfg.Host.Port = *o.Port
	}
	if o.Initial != nil {
		cfg.Initial = *o.Initial
	}
	if o.Ignore != nil {
		cfg.Ignore = append([]string{}, o.Ignore...)
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func applyDefaults(cfg *types.Config) {
	if cfg.Host.Protocol == "" {
		cfg.Host.Protocol = types.ProtocolFTP
	}
	if cfg.Host.Address == "" {
		cfg.Host.Address = DefaultHost
	}
	if cfg.Host.Port == 0 {
		cfg.Host.Port = cfg.Host.Protocol.DefaultPort()
	}
	if cfg.Host.User == "" {
		cfg.Host.User = DefaultUser
	}
	if cfg.Host.Password == "" {
		cfg.Host.Password = DefaultPassword
	}
	if cfg.Host.Timeout == 0 {
		cfg.Host.Timeout = DefaultTimeout
	}
	if cfg.Theme == "" {
		cfg.Theme = DefaultTheme
	}
	if cfg.PathLocal == "" {
		cfg.PathLocal = DefaultPathLocal
	}
	if cfg.PathRemote == "" {
		cfg.PathRemote = DefaultPathRemote
	}
	if cfg.Backup == "" {
		cfg.Backup = DefaultBackup
	}
	if cfg.Ignore == nil {
		cfg.Ignore = []string{}
	}
}

func normalize(cfg *types.Config) error {
	local, err := homedir.Expand(cfg.PathLocal)
	if err != nil {
		return &types.ConfigError{Field: "pathLocal", Err: err}
	}
	cfg.PathLocal = filepath.Clean(local)

	if cfg.Host.KnownHosts != "" {
		known, err := homedir.Expand(cfg.Host.KnownHosts)
		if err != nil {
			return &types.ConfigError{Field: "knownHosts", Err: err}
		}
		cfg.Host.KnownHosts = filepath.Clean(known)
	}

	cfg.Host.Address = strings.TrimSpace(cfg.Host.Address)
	cfg.Theme = strings.TrimSpace(cfg.Theme)
	cfg.PathRemote = path.Clean(cfg.PathRemote)
	cfg.Backup = path.Clean(cfg.Backup)
	return nil
}

// Validate checks a merged configuration
func Validate(cfg types.Config) error {
	if cfg.Host.Address == "" {
		return &types.ConfigError{Field: "host", Err: errors.New("is required")}
	}

	if cfg.Host.Port < 1 || cfg.Host.Port > 65535 {
		return &types.ConfigError{Field: "port", Err: errors.Errorf("%d is out of range", cfg.Host.Port)}
	}

	if !cfg.Host.Protocol.Valid() {
		return &types.ConfigError{Field: "protocol", Err: errors.Errorf("unsupported protocol %q (must be ftp or sftp)", cfg.Host.Protocol)}
	}

	if cfg.Host.Timeout < 0 {
		return &types.ConfigError{Field: "timeout", Err: errors.New("must not be negative")}
	}

	if cfg.Theme == "" || cfg.Theme == "." || cfg.Theme == ".." || strings.ContainsAny(cfg.Theme, `/\`) {
		return &types.ConfigError{Field: "theme", Err: errors.Errorf("%q is not a directory name", cfg.Theme)}
	}

	// the backups must not move along with the live theme
	live := cfg.ThemeRemote()
	backup := cfg.BackupRoot()
	if backup == live || strings.HasPrefix(backup, live+"/") {
		return &types.ConfigError{Field: "backup", Err: errors.Errorf("%s is inside the theme %s", backup, live)}
	}

	_, err := manifest.NewFilter(cfg.Ignore)
	if err != nil {
		return &types.ConfigError{Field: "ignore", Err: err}
	}

	return nil
}
