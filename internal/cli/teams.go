package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"hackathon-scoreboard/internal/auth"
	"hackathon-scoreboard/internal/scoring"
	"hackathon-scoreboard/internal/teams"
)

func (a *app) teamsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "teams",
		Short: "List, register, score, edit and remove teams",
	}
	cmd.AddCommand(a.teamsListCmd(), a.teamsAddCmd(), a.teamsScoresCmd(), a.teamsEditCmd(), a.teamsRemoveCmd(), a.teamsShowCmd())
	return cmd
}

func (a *app) teamsListCmd() *cobra.Command {
	var sortBy, category string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List teams sorted and filtered",
		RunE: func(cmd *cobra.Command, _ []string) error {
			key, err := teams.ParseSortKey(sortBy)
			if err != nil {
				return err
			}
			a.styles.printTeams(cmd.OutOrStdout(), a.reg.SortedFiltered(key, category), false)
			return nil
		},
	}
	cmd.Flags().StringVar(&sortBy, "sort", "id", "Sort by id, name, category or overall")
	cmd.Flags().StringVar(&category, "category", scoring.FilterAll, "Only show this category")
	return cmd
}

func (a *app) teamsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show the full details of one team",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			t, ok := a.reg.Get(id)
			if !ok {
				return fmt.Errorf("%w: %d", teams.ErrNotFound, id)
			}
			fmt.Fprintln(cmd.OutOrStdout(), t.FullDetails())
			return nil
		},
	}
}

func (a *app) teamsAddCmd() *cobra.Command {
	var (
		id                         int
		name, university, category string
		scores                     []int
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a team",
		Long:  "Register a team. Without --id the next free id is used; without --scores all scores start at 0.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.role.Check(auth.RegisterTeam); err != nil {
				return err
			}
			if len(scores) != 0 && len(scores) != scoring.ScoreCount {
				return teams.ErrInvalidScores
			}
			t := teams.NewTeam(id, name, university, category, scores)
			probe := t
			if probe.ID == 0 {
				probe.ID = a.reg.NextID()
			}
			if err := probe.Validate(); err != nil {
				return err
			}

			var ok bool
			if id == 0 {
				t, ok = a.reg.RegisterNext(t)
			} else {
				ok = a.reg.Register(t)
			}
			if !ok {
				return fmt.Errorf("%w: id %d or name %q already registered in %s", teams.ErrDuplicate, t.ID, t.Name, t.Category)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, a.styles.ok.Render("registered "+t.ShortDetails()))
			if hint, ok := scoring.Suggest(t.Category); ok {
				fmt.Fprintln(out, a.styles.warn.Render(fmt.Sprintf("unknown category %q, did you mean %q?", t.Category, hint)))
			}
			return a.save(out)
		},
	}
	cmd.Flags().IntVar(&id, "id", 0, "Team id (default: next free id)")
	cmd.Flags().StringVar(&name, "name", "", "Team name")
	cmd.Flags().StringVar(&university, "university", "", "University")
	cmd.Flags().StringVar(&category, "category", "", "Category")
	cmd.Flags().IntSliceVar(&scores, "scores", nil, "Four scores 0-5, comma separated")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("university")
	_ = cmd.MarkFlagRequired("category")
	return cmd
}

func (a *app) teamsScoresCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scores <id> <creativity> <technical> <teamwork> <presentation>",
		Short: "Replace the four scores of a team",
		Args:  cobra.ExactArgs(1 + scoring.ScoreCount),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.role.Check(auth.ScoreTeam); err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			scores := make([]int, 0, scoring.ScoreCount)
			for i, s := range args[1:] {
				v, err := strconv.Atoi(s)
				if err != nil || !scoring.InRange(v) {
					return fmt.Errorf("%w: %s score %q", teams.ErrInvalidScores, scoring.Criteria[i], s)
				}
				scores = append(scores, v)
			}

			t, err := a.reg.Update(id, func(t *teams.Team) error {
				if !t.SetScores(scores) {
					return teams.ErrInvalidScores
				}
				return nil
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), a.styles.ok.Render("scored "+t.ShortDetails()))
			return a.save(cmd.OutOrStdout())
		},
	}
}

func (a *app) teamsEditCmd() *cobra.Command {
	var name, university, category string
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change the name, university or category of a team",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.role.Check(auth.EditTeam); err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			t, err := a.reg.Update(id, func(t *teams.Team) error {
				if flags.Changed("name") {
					t.SetName(name)
				}
				if flags.Changed("university") {
					t.SetUniversity(university)
				}
				if flags.Changed("category") {
					t.SetCategory(category)
				}
				return t.Validate()
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), a.styles.ok.Render("updated "+t.ShortDetails()))
			return a.save(cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "New team name")
	cmd.Flags().StringVar(&university, "university", "", "New university")
	cmd.Flags().StringVar(&category, "category", "", "New category")
	return cmd
}

func (a *app) teamsRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a team",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.role.Check(auth.RemoveTeam); err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if !a.reg.Remove(id) {
				return fmt.Errorf("%w: %d", teams.ErrNotFound, id)
			}
			fmt.Fprintln(cmd.OutOrStdout(), a.styles.ok.Render(fmt.Sprintf("removed team %d", id)))
			return a.save(cmd.OutOrStdout())
		},
	}
}
