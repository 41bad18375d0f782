package cli

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/jrsteele09/go-seller-client/gateway"
	"github.com/jrsteele09/go-seller-client/sellermodel"
	"github.com/spf13/cobra"
)

func newProductsCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "products",
		Short: "Manage the seller's inventory",
	}
	cmd.AddCommand(
		newProductsListCommand(e),
		newProductsSearchCommand(e),
		newProductsCreateCommand(e),
		newProductsDeleteCommand(e),
		newProductsCategoriesCommand(e),
	)
	return cmd
}

func productRows(products []sellermodel.Product) [][]any {
	rows := make([][]any, 0, len(products))
	for _, p := range products {
		stock := fmt.Sprint(p.Stock)
		if p.LowStock() {
			stock += " (low)"
		}
		rows = append(rows, []any{p.ID, p.Name, p.Price, stock, p.ApprovalStatus})
	}
	return rows
}

var productHeader = []any{"ID", "NAME", "PRICE", "STOCK", "APPROVAL"}

func newProductsListCommand(e *env) *cobra.Command {
	var filter string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the seller's products",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return e.run(cmd, func(ctx context.Context, a *app) error {
				products, err := a.seller.SearchInventory(ctx, filter)
				if err != nil {
					return err
				}
				return e.printer().table(products, productHeader, productRows(products))
			})
		},
	}
	cmd.Flags().StringVar(&filter, "filter", "", "only list products whose name contains this text")
	return cmd
}

func newProductsSearchCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "search <term>",
		Short: "Search the master catalogue for products to stock",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.run(cmd, func(ctx context.Context, a *app) error {
				items, err := a.seller.SearchCatalog(ctx, args[0])
				if err != nil {
					return err
				}
				rows := make([][]any, 0, len(items))
				for _, it := range items {
					rows = append(rows, []any{it.ID, it.Name, it.Brand})
				}
				return e.printer().table(items, []any{"ID", "NAME", "BRAND"}, rows)
			})
		},
	}
}

func newProductsCreateCommand(e *env) *cobra.Command {
	var (
		p      sellermodel.Product
		price  float64
		images []string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Add a product, optionally with images",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p.Price = sellermodel.Amount(price)
			if err := p.Validate(); err != nil {
				return err
			}
			files, closeFiles, err := openImages(images)
			if err != nil {
				return err
			}
			defer closeFiles()

			return e.run(cmd, func(ctx context.Context, a *app) error {
				if _, err := a.seller.CreateProduct(ctx, p, files...); err != nil {
					return err
				}
				fmt.Fprintf(e.opts.out, "product %q created\n", p.Name)
				return nil
			})
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&p.Name, "name", "", "product name")
	flags.StringVar(&p.Description, "description", "", "product description")
	flags.StringVar(&p.Brand, "brand", "", "brand")
	flags.StringVar(&p.Unit, "unit", "", "selling unit, e.g. 1kg")
	flags.StringVar((*string)(&p.CategoryID), "category", "", "category id")
	flags.StringVar((*string)(&p.MasterProductID), "master", "", "master catalogue product id")
	flags.Float64Var(&price, "price", 0, "price in rupees")
	flags.IntVar(&p.Stock, "stock", 0, "units in stock")
	flags.StringSliceVar(&images, "image", nil, "image file to upload (repeatable)")
	return cmd
}

func openImages(paths []string) ([]gateway.File, func(), error) {
	var opened []*os.File
	closeAll := func() {
		for _, f := range opened {
			f.Close()
		}
	}
	files := make([]gateway.File, 0, len(paths))
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("open image: %w", err)
		}
		opened = append(opened, f)
		files = append(files, gateway.File{
			FileName:    filepath.Base(path),
			ContentType: mime.TypeByExtension(filepath.Ext(path)),
			Content:     f,
		})
	}
	return files, closeAll, nil
}

func newProductsDeleteCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a product from the inventory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.run(cmd, func(ctx context.Context, a *app) error {
				if err := a.seller.DeleteProduct(ctx, sellermodel.ID(args[0])); err != nil {
					return err
				}
				fmt.Fprintf(e.opts.out, "product %s deleted\n", args[0])
				return nil
			})
		},
	}
}

func newProductsCategoriesCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List product categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return e.run(cmd, func(ctx context.Context, a *app) error {
				categories, err := a.seller.Categories(ctx)
				if err != nil {
					return err
				}
				rows := make([][]any, 0, len(categories))
				for _, c := range categories {
					rows = append(rows, []any{c.ID, c.Name})
				}
				return e.printer().table(categories, []any{"ID", "NAME"}, rows)
			})
		},
	}
}
