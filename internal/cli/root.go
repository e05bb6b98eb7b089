// Package cli implements hackctl, the terminal front end of the scoreboard.
package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"hackathon-scoreboard/internal/auth"
	"hackathon-scoreboard/internal/config"
	"hackathon-scoreboard/internal/teams"
)

type app struct {
	v      *viper.Viper
	cfg    *config.Config
	role   auth.Role
	reg    *teams.Registry
	styles styles
}

// NewRootCmd builds the command tree with its own viper instance.
func NewRootCmd() *cobra.Command {
	a := &app{v: viper.New(), styles: newStyles()}

	root := &cobra.Command{
		Use:   "hackctl",
		Short: "Manage hackathon teams, scores and reports",
		Long: `hackctl works on the team records file directly. Every change is
saved back to the file straight away.

The --role flag (or HACKATHON_ROLE) selects what you are allowed to do:
Admin, Judge, Organizer, Registration Clerk, Competitor or Public.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	root.PersistentFlags().String("data", "HackathonTeams.csv", "Team records file")
	root.PersistentFlags().String("role", string(auth.Public), "Role to act as")
	_ = a.v.BindPFlag("data.path", root.PersistentFlags().Lookup("data"))
	_ = a.v.BindPFlag("role", root.PersistentFlags().Lookup("role"))

	root.AddCommand(
		a.teamsCmd(),
		a.leaderboardCmd(),
		a.statsCmd(),
		a.reportCmd(),
		a.exportCmd(),
		a.validateCmd(),
		a.categoriesCmd(),
	)
	return root
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.v)
	if err != nil {
		return err
	}
	a.cfg = cfg

	role, err := auth.ParseRole(a.v.GetString("role"))
	if err != nil {
		return err
	}
	a.role = role

	a.reg = teams.NewRegistry()
	if cmd.Annotations["registry"] == "skip" {
		return nil
	}
	for _, e := range a.reg.LoadFile(cfg.Data.Path) {
		fmt.Fprintln(cmd.ErrOrStderr(), a.styles.warn.Render(e.Error()))
	}
	return nil
}

// save writes the registry back after a change.
func (a *app) save(out io.Writer) error {
	if err := a.reg.SaveFile(a.cfg.Data.Path); err != nil {
		return err
	}
	fmt.Fprintln(out, a.styles.dim.Render("saved "+a.cfg.Data.Path))
	return nil
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid team id %q", s)
	}
	return id, nil
}
