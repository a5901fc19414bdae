package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pkordes/nexttrip/backend/internal/app"
	"github.com/pkordes/nexttrip/backend/internal/domain"
)

func (r *root) newThemeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "theme",
		Short: "Show or change the saved UI theme",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.themeOp(cmd, func(ctx context.Context, a *app.App) (domain.Theme, error) {
				return a.Settings.Theme(ctx)
			})
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get",
		Short: "Show the saved theme",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.themeOp(cmd, func(ctx context.Context, a *app.App) (domain.Theme, error) {
				return a.Settings.Theme(ctx)
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:       "set <light|dark|auto>",
		Short:     "Save a theme",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(domain.ThemeLight), string(domain.ThemeDark), string(domain.ThemeAuto)},
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.themeOp(cmd, func(ctx context.Context, a *app.App) (domain.Theme, error) {
				return a.Settings.SetTheme(ctx, domain.Theme(args[0]))
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "toggle",
		Short: "Advance the theme: dark, light, auto",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.themeOp(cmd, func(ctx context.Context, a *app.App) (domain.Theme, error) {
				return a.Settings.ToggleTheme(ctx)
			})
		},
	})
	return cmd
}

func (r *root) themeOp(cmd *cobra.Command, op func(context.Context, *app.App) (domain.Theme, error)) error {
	return r.withApp(cmd, func(ctx context.Context, a *app.App) error {
		theme, err := op(ctx, a)
		if err != nil {
			return err
		}
		if r.output != "table" {
			return r.print(cmd.OutOrStdout(), map[string]string{"theme": string(theme)})
		}
		fmt.Fprintln(cmd.OutOrStdout(), theme)
		return nil
	})
}
