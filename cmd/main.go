package main

import (
	"context"
	"os"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/wpdeploy/bootstrap"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configFile, logLevel string

	cmd := &cobra.Command{
		Use:   "wordpress-deploy",
		Short: "Deploy a WordPress theme over FTP or SFTP, keeping a backup of the current one",
		Long: `wordpress-deploy uploads the local theme folder next to the live theme on the
server, moves the live theme into a timestamped backup folder and puts the
upload in its place.

Settings are read from the config file and can be overridden with flags.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,

		// failures are already drawn by the console reporter
		SilenceErrors: true,
	}

	flags := cmd.Flags()
	flags.StringVar(&configFile, "configFile", "./"+bootstrap.DefaultConfigFile, "config file")
	flags.StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	flags.String("host", bootstrap.DefaultHost, "hostname or IP address of the server")
	flags.Int("port", 0, "port of the server (default 21 for ftp, 22 for sftp)")
	flags.String("user", bootstrap.DefaultUser, "user name")
	flags.String("password", bootstrap.DefaultPassword, "password")
	flags.String("protocol", "ftp", "transfer protocol (ftp, sftp)")
	flags.String("theme", bootstrap.DefaultTheme, "theme folder to deploy")
	flags.String("pathLocal", bootstrap.DefaultPathLocal, "local folder containing the theme")
	flags.String("pathRemote", bootstrap.DefaultPathRemote, "remote folder containing the theme")
	flags.String("backup", bootstrap.DefaultBackup, "remote folder receiving the backups")
	flags.String("knownHosts", "", "known_hosts file used to verify the sftp server")
	flags.StringArray("ignore", nil, "glob of files not to upload, can be repeated")
	flags.Bool("initial", false, "first deployment, there is no live theme to back up")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		level, err := log.ParseLevel(logLevel)
		if err != nil {
			return errors.Wrap(err, "log level")
		}
		log.SetLevel(level)

		b := bootstrap.Client{Out: cmd.OutOrStdout(), Log: log.StandardLogger()}
		err = b.Run(configFile, overrides(cmd.Flags()))
		if err != nil {
			log.WithError(err).Error("could not load the configuration")
			return err
		}

		return b.Apply(context.Background())
	}

	return cmd
}

// overrides collects the flags set on the command line
func overrides(flags *pflag.FlagSet) bootstrap.Overrides {
	var o bootstrap.Overrides

	str := func(name string) *string {
		if !flags.Changed(name) {
			return nil
		}
		v, _ := flags.GetString(name)
		return &v
	}

	o.Host = str("host")
	o.User = str("user")
	o.Password = str("password")
	o.Protocol = str("protocol")
	o.Theme = str("theme")
	o.PathLocal = str("pathLocal")
	o.PathRemote = str("pathRemote")
	o.Backup = str("backup")
	o.KnownHosts = str("knownHosts")

	if flags.Changed("port") {
		v, _ := flags.GetInt("port")
		o.Port = &v
	}
	if flags.Changed("initial") {
		v, _ := flags.GetBool("initial")
		o.Initial = &v
	}
	if flags.Changed("ignore") {
		o.Ignore, _ = flags.GetStringArray("ignore")
	}

	return o
}
