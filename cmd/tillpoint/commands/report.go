package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/marshallshelly/tillpoint/cmd/tillpoint/output"
	"github.com/marshallshelly/tillpoint/pkg/report"
	"github.com/spf13/cobra"
)

var (
	// Report flags
	topN      int
	reportDay string
)

// reportCmd represents the report command
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate reports",
	Long: `Read-only aggregate reports over the store.

Subcommands:
  dashboard  - Key metrics: active users, completed orders, revenue, top products
  top        - Top products by quantity sold
  daily      - Sales summary for one day
  inventory  - Stock levels and inventory value
  customers  - Per-user order counts and total spend
  summary    - Completed-order rollup with recent orders`,
}

var reportDashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show the dashboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReportDashboard()
	},
}

var reportTopCmd = &cobra.Command{
	Use:   "top",
	Short: "Top products by quantity sold",
	Long: `Rank products by total quantity sold across completed orders. Equal
quantities rank by lower product id first.

Examples:
  tillpoint report top
  tillpoint report top --n 10`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReportTop()
	},
}

var reportDailyCmd = &cobra.Command{
	Use:   "daily",
	Short: "Sales summary for one day",
	Long: `Summarize completed orders for one calendar day (today by default).

Examples:
  tillpoint report daily
  tillpoint report daily --day 2026-08-28`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReportDaily()
	},
}

var reportInventoryCmd = &cobra.Command{
	Use:   "inventory",
	Short: "Stock levels and inventory value",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReportInventory()
	},
}

var reportCustomersCmd = &cobra.Command{
	Use:   "customers",
	Short: "Per-user order counts and total spend",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReportCustomers()
	},
}

var reportSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Completed-order rollup",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReportSummary()
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.AddCommand(
		reportDashboardCmd,
		reportTopCmd,
		reportDailyCmd,
		reportInventoryCmd,
		reportCustomersCmd,
		reportSummaryCmd,
	)

	reportTopCmd.Flags().IntVar(&topN, "n", 5, "Number of products to rank")
	reportDailyCmd.Flags().StringVar(&reportDay, "day", "", "Day as YYYY-MM-DD (default today)")
}

func newReporter(ctx context.Context) (*report.Reporter, func(), error) {
	db, err := connect(ctx)
	if err != nil {
		return nil, nil, err
	}
	return report.NewReporter(db), db.Close, nil
}

func runReportDashboard() error {
	ctx := context.Background()
	r, closeDB, err := newReporter(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	d, err := r.Dashboard(ctx)
	if err != nil {
		return err
	}

	if jsonOutput {
		return json.NewEncoder(os.Stdout).Encode(d)
	}

	output.Section("Dashboard")
	output.Info("Active users: %d", d.ActiveUsers)
	output.Info("Completed orders: %d", d.CompletedOrders)
	output.Info("Revenue: %s", output.Currency(d.Revenue))

	if len(d.TopProducts) > 0 {
		fmt.Println()
		output.Primary("Top products")
		printProductSales(d.TopProducts)
	}
	return nil
}

func runReportTop() error {
	ctx := context.Background()
	r, closeDB, err := newReporter(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	top, err := r.TopProducts(ctx, topN)
	if err != nil {
		return err
	}

	if jsonOutput {
		return json.NewEncoder(os.Stdout).Encode(top)
	}

	if len(top) == 0 {
		output.Muted("No completed sales yet")
		return nil
	}
	printProductSales(top)
	return nil
}

func runReportDaily() error {
	day := time.Now()
	if reportDay != "" {
		parsed, err := time.ParseInLocation("2006-01-02", reportDay, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --day %q: want YYYY-MM-DD", reportDay)
		}
		day = parsed
	}

	ctx := context.Background()
	r, closeDB, err := newReporter(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	ds, err := r.DailySales(ctx, day)
	if err != nil {
		return err
	}

	if jsonOutput {
		return json.NewEncoder(os.Stdout).Encode(ds)
	}

	output.Section("Daily Sales — " + ds.Day.Format("January 2, 2006"))
	if ds.OrderCount == 0 {
		output.Muted("No sales recorded for this day")
		return nil
	}
	output.Info("Orders: %d", ds.OrderCount)
	output.Info("Total sales: %s", output.Currency(ds.TotalSales))
	output.Info("Average order value: %s", output.Currency(ds.AverageOrder))

	if len(ds.TopProducts) > 0 {
		fmt.Println()
		output.Primary("Top products")
		printProductSales(ds.TopProducts)
	}
	return nil
}

func runReportInventory() error {
	ctx := context.Background()
	r, closeDB, err := newReporter(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	inv, err := r.Inventory(ctx)
	if err != nil {
		return err
	}

	if jsonOutput {
		return json.NewEncoder(os.Stdout).Encode(inv)
	}

	if len(inv.Lines) == 0 {
		output.Muted("No products in inventory")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPRODUCT\tPRICE\tIN STOCK\tVALUE")
	for _, line := range inv.Lines {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\n",
			line.ProductID, line.Name, output.Currency(line.Price),
			line.Stock, output.Currency(line.Value))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Println()
	output.Info("Total inventory value: %s", output.Currency(inv.TotalValue))

	for _, line := range inv.LowStock {
		output.Warning("Low stock: %s (%d remaining)", line.Name, line.Stock)
	}
	for _, line := range inv.OutOfStock {
		output.Error("Out of stock: %s", line.Name)
	}
	return nil
}

func runReportCustomers() error {
	ctx := context.Background()
	r, closeDB, err := newReporter(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	customers, err := r.CustomerPurchases(ctx)
	if err != nil {
		return err
	}

	if jsonOutput {
		return json.NewEncoder(os.Stdout).Encode(customers)
	}

	if len(customers) == 0 {
		output.Muted("No customer purchase data available")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCUSTOMER\tORDERS\tTOTAL SPENT")
	for _, c := range customers {
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\n",
			c.UserID, c.Name, c.OrderCount, output.Currency(c.TotalSpent))
	}
	return w.Flush()
}

func runReportSummary() error {
	ctx := context.Background()
	r, closeDB, err := newReporter(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	s, err := r.Summary(ctx)
	if err != nil {
		return err
	}

	if jsonOutput {
		return json.NewEncoder(os.Stdout).Encode(s)
	}

	output.Section("Order Summary")
	output.Info("Completed orders: %d", s.CompletedOrders)
	output.Info("Average order value: %s", output.Currency(s.AverageOrder))

	if len(s.RecentOrders) > 0 {
		fmt.Println()
		output.Primary("Recent orders")
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tCUSTOMER\tAMOUNT")
		for _, ro := range s.RecentOrders {
			fmt.Fprintf(w, "%d\t%s\t%s\n", ro.OrderID, ro.UserName, output.Currency(ro.Amount))
		}
		return w.Flush()
	}
	return nil
}

func printProductSales(sales []report.ProductSales) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPRODUCT\tQTY SOLD\tREVENUE")
	for _, ps := range sales {
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\n", ps.ProductID, ps.Name, ps.Quantity, output.Currency(ps.Revenue))
	}
	_ = w.Flush()
}
