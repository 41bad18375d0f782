package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newShopCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shop",
		Short: "Open or close the shop for new orders",
	}
	cmd.AddCommand(
		newShopToggleCommand(e, "open", true),
		newShopToggleCommand(e, "close", false),
	)
	return cmd
}

func newShopToggleCommand(e *env, use string, open bool) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: use + " the shop",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return e.run(cmd, func(ctx context.Context, a *app) error {
				if _, err := a.requireUser(); err != nil {
					return err
				}
				if err := a.seller.SetShopOpen(ctx, open); err != nil {
					return err
				}
				fmt.Fprintf(e.opts.out, "shop is now %s\n", openClosed(open))
				return nil
			})
		},
	}
}
