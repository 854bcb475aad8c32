package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harun/sessionhooks/internal/daemon"
)

var (
	runServer    string
	runDirectory string
)

var runCmd = &cobra.Command{
	Use:     "run",
	Aliases: []string{"start"},
	Short:   "Connect to OpenCode and run the plugins",
	Long: `Connect to the OpenCode server event stream and run the enabled plugins
until interrupted. The connection is re-established when the server goes away.`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVar(&runServer, "server", "", "OpenCode server URL (overrides server.url)")
	runCmd.Flags().StringVar(&runDirectory, "directory", "", "project directory sent to the server (overrides server.directory)")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if runServer != "" {
		cfg.Server.URL = runServer
	}
	if runDirectory != "" {
		cfg.Server.Directory = runDirectory
	}

	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Close()

	d, err := daemon.New(cfg, log)
	if err != nil {
		return err
	}

	if err := d.Start(); err != nil {
		return fmt.Errorf("failed to start daemon: %w", err)
	}

	d.Wait()
	return nil
}
