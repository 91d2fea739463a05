package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/marshallshelly/tillpoint/cmd/tillpoint/output"
	"github.com/marshallshelly/tillpoint/cmd/tillpoint/tui"
	"github.com/marshallshelly/tillpoint/pkg/sale"
	"github.com/spf13/cobra"
)

var (
	// Sale flags
	saleUserID      int
	saleItems       []string
	saleInteractive bool
)

// saleCmd represents the sale command
var saleCmd = &cobra.Command{
	Use:   "sale",
	Short: "Record a sale",
	Long: `Record a sale: one order, one item per cart line, and the matching
stock decrements, committed atomically. A failed sale leaves the store
unchanged.

Examples:
  tillpoint sale --user 1 --item 2:3 --item 5:1   # 3 of product 2, 1 of product 5
  tillpoint sale --interactive                     # cart entry via the TUI`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSale()
	},
}

func init() {
	rootCmd.AddCommand(saleCmd)

	saleCmd.Flags().IntVar(&saleUserID, "user", 0, "User id placing the order")
	saleCmd.Flags().StringArrayVar(&saleItems, "item", nil, "Cart line as productID:quantity (repeatable)")
	saleCmd.Flags().BoolVarP(&saleInteractive, "interactive", "i", false, "Run the interactive sale screen")
}

func runSale() error {
	if saleInteractive {
		url, err := resolveDBURL()
		if err != nil {
			return err
		}
		return tui.RunSaleUI(url)
	}

	if saleUserID == 0 {
		return fmt.Errorf("--user flag is required")
	}

	lines, err := parseCartItems(saleItems)
	if err != nil {
		return err
	}

	ctx := context.Background()

	db, err := connect(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	order, err := sale.NewExecutor(db).ExecuteSale(ctx, saleUserID, lines)
	if err != nil {
		return err
	}

	if jsonOutput {
		return json.NewEncoder(os.Stdout).Encode(order)
	}

	output.Success("Sale completed: order #%d, total %s", order.ID, output.Currency(order.TotalAmount))
	return nil
}

// parseCartItems turns repeated --item productID:quantity flags into cart
// lines. Lines are kept in flag order and never merged.
func parseCartItems(items []string) ([]sale.CartLine, error) {
	var lines []sale.CartLine
	for _, item := range items {
		productPart, quantityPart, ok := strings.Cut(item, ":")
		if !ok {
			return nil, fmt.Errorf("invalid --item %q: want productID:quantity", item)
		}
		productID, err := strconv.Atoi(productPart)
		if err != nil {
			return nil, fmt.Errorf("invalid product id in --item %q", item)
		}
		quantity, err := strconv.Atoi(quantityPart)
		if err != nil {
			return nil, fmt.Errorf("invalid quantity in --item %q", item)
		}
		lines = append(lines, sale.CartLine{ProductID: productID, Quantity: quantity})
	}
	return lines, nil
}
