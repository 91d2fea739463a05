package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/marshallshelly/tillpoint/cmd/tillpoint/output"
	"github.com/marshallshelly/tillpoint/pkg/store"
	"github.com/spf13/cobra"
)

var (
	// Product flags
	productName  string
	productPrice float64
	productStock int
)

// productsCmd represents the products command
var productsCmd = &cobra.Command{
	Use:   "products",
	Short: "Manage the product catalog",
	Long: `Manage the products available for sale.

Subcommands:
  list    - List all products
  add     - Add a new product
  update  - Update a product's name, price, or stock
  delete  - Delete a product (blocked while any order references it)`,
}

var productsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all products",
	Long: `List all products ordered by id.

Examples:
  tillpoint products list
  tillpoint products list --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runProductsList()
	},
}

var productsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a new product",
	Long: `Add a new product. The name must be unique, the price positive, and the
initial stock non-negative.

Examples:
  tillpoint products add --name Espresso --price 2.50 --stock 100`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runProductsAdd()
	},
}

var productsUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update a product",
	Long: `Update a product's name, price, or stock. Only the given flags change.

Examples:
  tillpoint products update 2 --price 3.95
  tillpoint products update 2 --stock 40
  tillpoint products update 2 --name "Double Espresso"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid product id %q", args[0])
		}
		return runProductsUpdate(cmd, id)
	},
}

var productsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a product",
	Long: `Delete a product. A product referenced by any order item cannot be
deleted.

Examples:
  tillpoint products delete 2`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid product id %q", args[0])
		}
		return runProductsDelete(id)
	},
}

func init() {
	rootCmd.AddCommand(productsCmd)
	productsCmd.AddCommand(productsListCmd, productsAddCmd, productsUpdateCmd, productsDeleteCmd)

	productsAddCmd.Flags().StringVar(&productName, "name", "", "Product name (required, unique)")
	productsAddCmd.Flags().Float64Var(&productPrice, "price", 0, "Unit price (required, > 0)")
	productsAddCmd.Flags().IntVar(&productStock, "stock", 0, "Initial stock quantity (>= 0)")

	productsUpdateCmd.Flags().StringVar(&productName, "name", "", "New name")
	productsUpdateCmd.Flags().Float64Var(&productPrice, "price", 0, "New price")
	productsUpdateCmd.Flags().IntVar(&productStock, "stock", 0, "New stock quantity")
}

func runProductsList() error {
	ctx := context.Background()

	db, err := connect(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	products, err := db.ListProducts(ctx)
	if err != nil {
		return err
	}

	if jsonOutput {
		return json.NewEncoder(os.Stdout).Encode(products)
	}

	if len(products) == 0 {
		output.Muted("No products found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tPRICE\tSTOCK\tCREATED")
	for _, p := range products {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\n",
			p.ID, p.Name, output.Currency(p.Price), p.Stock,
			p.CreatedAt.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func runProductsAdd() error {
	ctx := context.Background()

	db, err := connect(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	product, err := db.CreateProduct(ctx, productName, productPrice, productStock)
	if err != nil {
		return err
	}

	output.Success("Product %q added with id %d (%s, %d in stock)",
		product.Name, product.ID, output.Currency(product.Price), product.Stock)
	return nil
}

func runProductsUpdate(cmd *cobra.Command, id int) error {
	ctx := context.Background()

	db, err := connect(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	// Only flags the operator actually set become part of the update.
	var upd store.ProductUpdate
	if cmd.Flags().Changed("name") {
		upd.Name = &productName
	}
	if cmd.Flags().Changed("price") {
		upd.Price = &productPrice
	}
	if cmd.Flags().Changed("stock") {
		upd.Stock = &productStock
	}

	product, err := db.UpdateProduct(ctx, id, upd)
	if err != nil {
		return err
	}

	output.Success("Product %d updated (%s, %s, %d in stock)",
		product.ID, product.Name, output.Currency(product.Price), product.Stock)
	return nil
}

func runProductsDelete(id int) error {
	ctx := context.Background()

	db, err := connect(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.DeleteProduct(ctx, id); err != nil {
		return err
	}

	output.Success("Product %d deleted", id)
	return nil
}
