package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jrsteele09/go-seller-client/realtime"
	"github.com/jrsteele09/go-seller-client/sellermodel"
	"github.com/spf13/cobra"
)

func newOrdersCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "List, inspect and update the seller's orders",
	}
	cmd.AddCommand(
		newOrdersListCommand(e),
		newOrdersShowCommand(e),
		newOrdersStatusCommand(e),
		newOrdersTrackCommand(e),
	)
	return cmd
}

func newOrdersListCommand(e *env) *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List sub-orders, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var filter sellermodel.OrderStatus
			if status != "" {
				s, err := sellermodel.ParseOrderStatus(status)
				if err != nil {
					return err
				}
				filter = s
			}
			return e.run(cmd, func(ctx context.Context, a *app) error {
				orders, err := a.seller.Orders(ctx, filter)
				if err != nil {
					return err
				}
				rows := make([][]any, 0, len(orders))
				for _, o := range orders {
					rows = append(rows, []any{o.ID, o.SubOrderNumber, o.Summary(), o.Total, o.Status, o.CreatedAt.Format("2006-01-02 15:04")})
				}
				return e.printer().table(orders, []any{"ID", "NUMBER", "ITEMS", "TOTAL", "STATUS", "PLACED"}, rows)
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "only list orders with this status")
	return cmd
}

func newOrdersShowCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a sub-order with its items and delivery address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.run(cmd, func(ctx context.Context, a *app) error {
				o, err := a.seller.OrderDetails(ctx, sellermodel.ID(args[0]))
				if err != nil {
					return err
				}
				return e.printer().value(o, func(w io.Writer) { printOrder(w, o) })
			})
		},
	}
}

func printOrder(w io.Writer, o *sellermodel.SubOrder) {
	fmt.Fprintf(w, "order:    %s (%s)\n", o.SubOrderNumber, o.ID)
	fmt.Fprintf(w, "status:   %s\n", o.Status)
	fmt.Fprintf(w, "placed:   %s\n", o.CreatedAt.Format("2006-01-02 15:04"))
	if o.CustomerName != "" {
		fmt.Fprintf(w, "customer: %s %s\n", o.CustomerName, o.CustomerPhone)
	}
	if addr := o.DeliveryAddress; addr != nil {
		fmt.Fprintf(w, "deliver:  %s, %s %s\n", addr.AddressLine1, addr.City, addr.Pincode)
	}
	if o.PaymentMethod != "" {
		fmt.Fprintf(w, "payment:  %s\n", o.PaymentMethod)
	}
	fmt.Fprintf(w, "total:    %s\n", o.Total)
	if actions := o.Status.SellerActions(); len(actions) > 0 {
		next := make([]string, len(actions))
		for i, s := range actions {
			next[i] = string(s)
		}
		fmt.Fprintf(w, "next:     %s\n", strings.Join(next, ", "))
	}
	if len(o.Items) == 0 {
		return
	}
	fmt.Fprintln(w)
	rows := make([][]any, 0, len(o.Items))
	for _, it := range o.Items {
		rows = append(rows, []any{it.ProductName, fmt.Sprintf("%d %s", it.Quantity, it.Unit), it.ItemTotal})
	}
	printer{out: w}.table(nil, []any{"ITEM", "QTY", "TOTAL"}, rows)
}

func newOrdersStatusCommand(e *env) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "status <id> <status>",
		Short: "Move a sub-order to a new status",
		Long: `Move a sub-order to a new status. Sellers accept or reject pending orders
and mark accepted orders ready_for_pickup; use --force to send any other
status to the backend anyway.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := sellermodel.ID(args[0])
			status, err := sellermodel.ParseOrderStatus(args[1])
			if err != nil {
				return err
			}
			return e.run(cmd, func(ctx context.Context, a *app) error {
				if !force {
					o, err := a.seller.OrderDetails(ctx, id)
					if err != nil {
						return err
					}
					if !allowed(o.Status.SellerActions(), status) {
						return fmt.Errorf("%w: cannot move %s order to %s", sellermodel.ErrInvalidOrderStatus, o.Status, status)
					}
				}
				if err := a.seller.UpdateOrderStatus(ctx, id, status); err != nil {
					return err
				}
				fmt.Fprintf(e.opts.out, "order %s is now %s\n", id, status)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "skip the seller transition check")
	return cmd
}

func allowed(actions []sellermodel.OrderStatus, status sellermodel.OrderStatus) bool {
	for _, a := range actions {
		if a == status {
			return true
		}
	}
	return false
}

func newOrdersTrackCommand(e *env) *cobra.Command {
	var socketURL string
	cmd := &cobra.Command{
		Use:   "track <id>",
		Short: "Follow the delivery partner's location for an order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.run(cmd, func(ctx context.Context, a *app) error {
				if _, err := a.requireUser(); err != nil {
					return err
				}
				tracker := realtime.NewTracker(e.opts.cfg, sellermodel.ID(args[0]), a.gateway, realtime.WithURL(socketURL))
				defer tracker.OnDeliveryLocation(func(l realtime.Location) {
					fmt.Fprintf(e.opts.out, "%.6f,%.6f\n", l.Lat, l.Lng)
				})()
				err := tracker.Run(ctx)
				if errors.Is(err, realtime.ErrGaveUp) {
					return fmt.Errorf("tracking order %s: %w", args[0], err)
				}
				return err
			})
		},
	}
	cmd.Flags().StringVar(&socketURL, "socket-url", e.opts.cfg.GetSocketURL(), "tracking server websocket URL")
	return cmd
}
