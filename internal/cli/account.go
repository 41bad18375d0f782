package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/jrsteele09/go-seller-client/sellermodel"
	"github.com/spf13/cobra"
)

func newWhoamiCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in seller and their application status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return e.run(cmd, func(_ context.Context, a *app) error {
				u, err := a.requireUser()
				if err != nil {
					return err
				}
				return e.printer().value(u, func(w io.Writer) {
					fmt.Fprintf(w, "%s\n", u.Greeting())
					fmt.Fprintf(w, "uid:      %s\n", u.UID)
					fmt.Fprintf(w, "phone:    %s\n", u.PhoneNumber)
					if u.Email != "" {
						fmt.Fprintf(w, "email:    %s\n", u.Email)
					}
					fmt.Fprintf(w, "status:   %s\n", u.SellerStatus())
					if u.BusinessName != "" {
						fmt.Fprintf(w, "business: %s\n", u.BusinessName)
						fmt.Fprintf(w, "shop:     %s\n", openClosed(u.IsOpen))
					}
					if sp := u.SellerProfile; sp != nil && sp.RejectionReason != "" {
						fmt.Fprintf(w, "reason:   %s\n", sp.RejectionReason)
					}
					if !u.ProfileLoaded {
						fmt.Fprintln(w, "(profile could not be loaded)")
					}
				})
			})
		},
	}
}

func newDashboardCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show today's sales, pending orders and recent orders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return e.run(cmd, func(ctx context.Context, a *app) error {
				stats, err := a.seller.DashboardStats(ctx)
				if err != nil {
					return err
				}
				return e.printer().value(stats, func(w io.Writer) {
					fmt.Fprintf(w, "shop:            %s\n", openClosed(stats.IsOpen))
					fmt.Fprintf(w, "today's sales:   %s\n", stats.TodaySales)
					fmt.Fprintf(w, "pending orders:  %d\n", stats.PendingOrders)
					fmt.Fprintf(w, "active products: %d\n", stats.ActiveProducts)
					fmt.Fprintf(w, "new reviews:     %d\n", stats.NewReviews)
					if len(stats.RecentOrders) == 0 {
						return
					}
					fmt.Fprintln(w)
					rows := make([][]any, 0, len(stats.RecentOrders))
					for _, o := range stats.RecentOrders {
						rows = append(rows, []any{o.OrderNumber, o.CustomerName, o.TotalAmount, o.Status})
					}
					printer{out: w}.table(nil, []any{"ORDER", "CUSTOMER", "TOTAL", "STATUS"}, rows)
				})
			})
		},
	}
}

func newWalletCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "wallet",
		Short: "Show the wallet balance and transactions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return e.run(cmd, func(ctx context.Context, a *app) error {
				wallet, err := a.seller.Wallet(ctx)
				if err != nil {
					return err
				}
				rows := make([][]any, 0, len(wallet.Transactions))
				for _, t := range wallet.Transactions {
					rows = append(rows, []any{t.CreatedAt.Format("2006-01-02"), creditDebit(t), t.Amount, t.Description})
				}
				if !e.flags.jsonOutput {
					fmt.Fprintf(e.opts.out, "balance: %s\n\n", wallet.Balance)
				}
				return e.printer().table(wallet, []any{"DATE", "TYPE", "AMOUNT", "DESCRIPTION"}, rows)
			})
		},
	}
}

func creditDebit(t sellermodel.WalletTransaction) string {
	if t.Credit() {
		return "credit"
	}
	return "debit"
}

func openClosed(open bool) string {
	if open {
		return "open"
	}
	return "closed"
}
