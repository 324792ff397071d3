package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/deemkeen/chirp/db"
	"github.com/deemkeen/chirp/identity"
	"github.com/deemkeen/chirp/social"
	"github.com/deemkeen/chirp/ui"
	"github.com/deemkeen/chirp/util"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	Debug bool
}

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:     util.Name,
		Short:   "A small social feed in the terminal",
		Version: util.GetVersion(),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.Debug {
				log.SetLevel(log.DebugLevel)
			}
		},
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLocal(cmd.Context())
		},
	}

	cmd.PersistentFlags().BoolVar(&opts.Debug, "debug", false, "debug logging")

	cmd.AddCommand(newServeCommand())
	cmd.AddCommand(newSeedCommand())

	return cmd
}

// loadStore reads the configuration and opens the migrated store.
func loadStore() (*util.AppConfig, *db.DB, error) {
	conf, err := util.ReadConf()
	if err != nil {
		return nil, nil, err
	}
	log.Debug("configuration", "conf", util.PrettyPrint(conf))

	database, err := db.GetDB(conf)
	if err != nil {
		return nil, nil, fmt.Errorf("opening store: %w", err)
	}
	return conf, database, nil
}

// runLocal starts the client for this machine's identity. Logs go to a file
// so they don't tear the alt screen.
func runLocal(ctx context.Context) error {
	conf, database, err := loadStore()
	if err != nil {
		log.Error("startup failed", "err", err)
		return err
	}
	defer database.Close()

	logFile, err := os.OpenFile(util.ResolveFilePath(conf.Conf.LogFile), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer logFile.Close()
	log.SetOutput(logFile)

	devices, err := identity.DefaultFileStore()
	if err != nil {
		return err
	}

	me, err := identity.Bootstrap(ctx, devices, database)
	if err != nil {
		log.Error("identity bootstrap failed", "err", err)
		return err
	}
	log.Info("starting", "version", util.GetNameAndVersion(), "handle", me.Handle)

	engine := social.NewEngine(database, me, social.WithFollowRepair(conf.Conf.RepairFollows))
	p := tea.NewProgram(ui.NewModel(ctx, engine, 0, 0), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = p.Run()
	return err
}
