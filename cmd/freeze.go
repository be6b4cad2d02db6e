package cmd

import (
	"errors"
	"fmt"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/abhisek/scholarly/internal/gamification"
	"github.com/abhisek/scholarly/internal/ui/theme"
)

var freezeCmd = &cobra.Command{
	Use:   "freeze",
	Short: fmt.Sprintf("Buy a streak freeze for %d XP", gamification.FreezeCost),
	Long: fmt.Sprintf("A streak freeze covers one missed day. You can hold up to %d; they are used\n"+
		"automatically when your next session starts.", gamification.MaxFreezes),
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		engine := gamification.New(s.Profile(), s.Stats())
		p, err := engine.BuyStreakFreeze(cmd.Context())
		switch {
		case errors.Is(err, gamification.ErrFreezeLimit):
			return fmt.Errorf("you already hold %d streak freezes", gamification.MaxFreezes)
		case errors.Is(err, gamification.ErrInsufficientXP):
			return fmt.Errorf("a streak freeze costs %d XP", gamification.FreezeCost)
		case err != nil:
			return err
		}
		lipgloss.Fprintln(cmd.OutOrStdout(), theme.XP.Render(fmt.Sprintf(
			"❄ Bought a streak freeze. You hold %d; %d XP left.", p.StreakFreezes, p.TotalXP)))
		return nil
	},
}
