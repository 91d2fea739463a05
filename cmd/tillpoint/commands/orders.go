package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/marshallshelly/tillpoint/cmd/tillpoint/output"
	"github.com/marshallshelly/tillpoint/pkg/report"
	"github.com/spf13/cobra"
)

// ordersCmd represents the orders command
var ordersCmd = &cobra.Command{
	Use:   "orders",
	Short: "Inspect and delete orders",
	Long: `Inspect recorded orders. Orders are created only through the sale
command; deleting an order removes its items but does not restore product
stock.

Subcommands:
  list    - List all orders
  show    - Show one order with its item lines
  delete  - Delete an order and its items`,
}

var ordersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all orders",
	Long: `List all orders ordered by id.

Examples:
  tillpoint orders list
  tillpoint orders list --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOrdersList()
	},
}

var ordersShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one order",
	Long: `Show an order with its owner and item lines.

Examples:
  tillpoint orders show 12
  tillpoint orders show 12 --json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid order id %q", args[0])
		}
		return runOrdersShow(id)
	},
}

var ordersDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an order",
	Long: `Delete an order and all of its item lines. Product stock decremented
when the sale was recorded is not restored.

Examples:
  tillpoint orders delete 12`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid order id %q", args[0])
		}
		return runOrdersDelete(id)
	},
}

func init() {
	rootCmd.AddCommand(ordersCmd)
	ordersCmd.AddCommand(ordersListCmd, ordersShowCmd, ordersDeleteCmd)
}

func runOrdersList() error {
	ctx := context.Background()

	db, err := connect(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	orders, err := db.ListOrders(ctx)
	if err != nil {
		return err
	}

	if jsonOutput {
		return json.NewEncoder(os.Stdout).Encode(orders)
	}

	if len(orders) == 0 {
		output.Muted("No orders recorded")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUSER\tTOTAL\tSTATUS\tCREATED")
	for _, o := range orders {
		fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\n",
			o.ID, o.UserID, output.Currency(o.TotalAmount), o.Status,
			o.CreatedAt.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func runOrdersShow(id int) error {
	ctx := context.Background()

	db, err := connect(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	detail, err := report.NewReporter(db).OrderDetail(ctx, id)
	if err != nil {
		return err
	}

	if jsonOutput {
		return json.NewEncoder(os.Stdout).Encode(detail)
	}

	output.Primary("Order #%d", detail.OrderID)
	output.Muted("%s · %s · placed %s", detail.UserName, detail.Status,
		detail.CreatedAt.Format("2006-01-02 15:04"))
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PRODUCT\tQTY\tUNIT PRICE\tLINE TOTAL")
	for _, line := range detail.Lines {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n",
			line.Product, line.Quantity,
			output.Currency(line.UnitPrice),
			output.Currency(line.UnitPrice*float64(line.Quantity)))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Println()
	output.Info("Total: %s", output.Currency(detail.TotalAmount))
	return nil
}

func runOrdersDelete(id int) error {
	ctx := context.Background()

	db, err := connect(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.DeleteOrder(ctx, id); err != nil {
		return err
	}

	output.Success("Order %d deleted (stock not restored)", id)
	return nil
}
