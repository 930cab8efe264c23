package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"food-storefront/currency"
	"food-storefront/models"
	"food-storefront/statemachine"
	"food-storefront/tracker"
)

var errNoSession = errors.New("no stored session; sign in through the storefront first")

var watchInterval time.Duration

var ordersCmd = &cobra.Command{
	Use:   "orders",
	Short: "Show the signed-in customer's orders",
	RunE:  runOrdersList,
}

var ordersWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Poll order status and print every change until interrupted",
	RunE:  runOrdersWatch,
}

func init() {
	ordersWatchCmd.Flags().DurationVar(&watchInterval, "interval", 0, "poll interval (default: ORDER_POLL_INTERVAL)")
	ordersCmd.AddCommand(ordersWatchCmd)
}

func runOrdersList(cmd *cobra.Command, _ []string) error {
	a, err := bootstrap(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	token := a.store.Token()
	if token == "" {
		return errNoSession
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.RequestTimeout)
	defer cancel()
	orders, err := a.client.ListMyOrders(ctx, token)
	if err != nil {
		return err
	}
	return writeOrders(cmd.OutOrStdout(), orders)
}

func runOrdersWatch(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.close()
	if a.store.Token() == "" {
		return errNoSession
	}

	interval := watchInterval
	if interval <= 0 {
		interval = a.cfg.PollInterval
	}
	out := cmd.OutOrStdout()
	t := tracker.New(a.client, a.store.Token, interval, func(u tracker.Update) {
		if err := writeUpdate(out, u); err != nil {
			a.log.WithError(err).Warn("write order update")
		}
	}, a.log)
	if err := t.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	t.Stop()
	return nil
}

func writeOrders(out io.Writer, orders []models.Order) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ORDER\tSTATUS\tTOTAL\tACTIONS")
	for _, o := range orders {
		actions := statemachine.ActionsFor(o.Status)
		names := make([]string, 0, len(actions))
		for _, act := range actions {
			names = append(names, string(act))
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", o.ID, statemachine.Label(o.Status), currency.Format(o.TotalAmount), orDash(strings.Join(names, ", ")))
	}
	return w.Flush()
}

// writeUpdate prints the full list on the first poll and only the changes
// afterwards.
func writeUpdate(out io.Writer, u tracker.Update) error {
	if u.Initial {
		return writeOrders(out, u.Orders)
	}
	for _, c := range u.Changes {
		if _, err := fmt.Fprintf(out, "%s  %s: %s -> %s\n",
			u.At.Format(time.TimeOnly), c.OrderID, statemachine.Label(c.From), statemachine.Label(c.To)); err != nil {
			return err
		}
	}
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
