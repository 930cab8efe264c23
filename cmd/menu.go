package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"food-storefront/currency"
	"food-storefront/geo"
	"food-storefront/store"
)

var menuFlags struct {
	branch   string
	category string
	search   string
	lat      float64
	lon      float64
}

var menuCmd = &cobra.Command{
	Use:   "menu",
	Short: "Print the menu for a branch, category and search term",
	RunE:  runMenu,
}

func init() {
	f := menuCmd.Flags()
	f.StringVar(&menuFlags.branch, "branch", "", `branch id, or "all" (default: the stored or nearest branch)`)
	f.StringVar(&menuFlags.category, "category", store.AllCategories, "category id")
	f.StringVar(&menuFlags.search, "search", "", "case-insensitive dish name filter")
	f.Float64Var(&menuFlags.lat, "lat", 0, "customer latitude, used to rank suggestions")
	f.Float64Var(&menuFlags.lon, "lon", 0, "customer longitude, used to rank suggestions")
	menuCmd.MarkFlagsRequiredTogether("lat", "lon")
}

func runMenu(cmd *cobra.Command, _ []string) error {
	a, err := bootstrap(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	snap := a.store.Snapshot()
	if len(snap.Foods) == 0 && a.loadErr != nil {
		return a.loadErr
	}
	if b := menuFlags.branch; b != "" {
		if _, ok := snap.Branch(b); !ok && b != store.AllBranches {
			return fmt.Errorf("select %q: %w", b, store.ErrUnknownBranch)
		}
		snap.SelectedBranch = b
	}
	if cmd.Flags().Changed("lat") {
		snap.Location = &geo.Coordinates{Latitude: menuFlags.lat, Longitude: menuFlags.lon}
	}
	snap.SearchTerm = menuFlags.search

	return writeMenu(cmd.OutOrStdout(), snap, menuFlags.category)
}

func writeMenu(out io.Writer, snap store.Snapshot, category string) error {
	result := snap.Menu(category)
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)

	if snap.SelectedBranch == "" {
		fmt.Fprintln(w, "No branch selected.")
		return w.Flush()
	}
	fmt.Fprintln(w, "FOOD\tSIZE\tBRANCH\tPRICE\tVARIANT")
	for _, item := range result.Items {
		for _, v := range item.Variants {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				item.Food.Name, v.SizeLabel(), branchName(snap, v.BranchID.String()), currency.Format(v.Price), v.ID)
		}
	}
	if len(result.Items) == 0 {
		fmt.Fprintln(w, "(nothing matches)")
	}

	if len(result.Suggestions) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "AVAILABLE ELSEWHERE\tSIZE\tBRANCH\tPRICE\tDISTANCE")
		for _, s := range result.Suggestions {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				s.Food.Name, s.Variant.SizeLabel(), branchName(snap, s.Variant.BranchID.String()), currency.Format(s.Variant.Price), s.DistanceLabel)
		}
	}
	return w.Flush()
}

func branchName(snap store.Snapshot, id string) string {
	if b, ok := snap.Branch(id); ok && b.Name != "" {
		return b.Name
	}
	return id
}
