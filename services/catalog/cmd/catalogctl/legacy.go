package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/game-store/services/catalog/internal/legacy"
)

// importDoc is the JSON layout accepted by "legacy import".
type importDoc struct {
	Categories []legacy.Category `json:"categories"`
	Suppliers  []legacy.Supplier `json:"suppliers"`
	Products   []legacy.Product  `json:"products"`
}

func newLegacyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "legacy",
		Short: "Inspect and load the legacy document store",
		Long:  "Works on the Badger directory directly. Badger takes an exclusive lock, so stop the catalog service that owns the directory first.",
	}
	cmd.AddCommand(newLegacyImportCmd(), newLegacyGetCmd())
	return cmd
}

func newLegacyImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import [file]",
		Short: "Load categories, suppliers and products from JSON",
		Long:  "Reads {\"categories\":[...],\"suppliers\":[...],\"products\":[...]} from a file (or stdin if no file given). Documents with an existing id are replaced.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readImportDoc(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			docs, err := openLegacy(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = docs.Close() }()

			n, err := importDocs(cmd, docs, doc)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Imported %d documents\n", n)
			return nil
		},
	}
}

func newLegacyGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "get <product|category|supplier> <id>",
		Short:     "Print one legacy document",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"product", "category", "supplier"},
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid id %q", args[1])
			}
			docs, err := openLegacy(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = docs.Close() }()

			ctx := cmd.Context()
			p := printerFromCmd(cmd)
			switch strings.ToLower(args[0]) {
			case "product":
				d, err := docs.GetProduct(ctx, id)
				if err != nil {
					return err
				}
				if p.isJSON() {
					return p.json(d)
				}
				p.kv([][2]string{
					{"ID", strconv.FormatInt(d.ProductID, 10)},
					{"Name", d.ProductName},
					{"Price", strconv.FormatFloat(d.UnitPrice, 'f', 2, 64)},
					{"Stock", strconv.Itoa(d.UnitsInStock)},
					{"Category", d.CategoryName},
					{"Supplier", d.SupplierName},
					{"Deleted", strconv.FormatBool(d.Deleted)},
					{"Copied", copiedTo(d.CopiedToPrimary, d.PrimaryID)},
				})
			case "category":
				d, err := docs.GetCategory(ctx, id)
				if err != nil {
					return err
				}
				if p.isJSON() {
					return p.json(d)
				}
				p.kv([][2]string{
					{"ID", strconv.FormatInt(d.CategoryID, 10)},
					{"Name", d.CategoryName},
					{"Copied", copiedTo(d.CopiedToPrimary, d.PrimaryID)},
				})
			case "supplier":
				d, err := docs.GetSupplier(ctx, id)
				if err != nil {
					return err
				}
				if p.isJSON() {
					return p.json(d)
				}
				p.kv([][2]string{
					{"ID", strconv.FormatInt(d.SupplierID, 10)},
					{"Company", d.CompanyName},
					{"Home page", d.HomePage},
					{"Copied", copiedTo(d.CopiedToPrimary, d.PrimaryID)},
				})
			default:
				return fmt.Errorf("unknown document kind %q", args[0])
			}
			return nil
		},
	}
}

func openLegacy(cmd *cobra.Command) (*legacy.Store, error) {
	path, _ := cmd.Flags().GetString("legacy-db")
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("--legacy-db (or LEGACY_DB_PATH) is required")
	}
	return legacy.Open(path)
}

func readImportDoc(stdin io.Reader, args []string) (importDoc, error) {
	var doc importDoc
	r := stdin
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return doc, err
		}
		defer func() { _ = f.Close() }()
		r = f
	}
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return doc, fmt.Errorf("decode JSON: %w", err)
	}
	return doc, nil
}

// importDocs writes referenced documents before the products pointing at them.
func importDocs(cmd *cobra.Command, docs *legacy.Store, doc importDoc) (int, error) {
	ctx := cmd.Context()
	n := 0
	for _, c := range doc.Categories {
		if err := docs.PutCategory(ctx, c); err != nil {
			return n, fmt.Errorf("category %d: %w", c.CategoryID, err)
		}
		n++
	}
	for _, s := range doc.Suppliers {
		if err := docs.PutSupplier(ctx, s); err != nil {
			return n, fmt.Errorf("supplier %d: %w", s.SupplierID, err)
		}
		n++
	}
	for _, p := range doc.Products {
		if err := docs.PutProduct(ctx, p); err != nil {
			return n, fmt.Errorf("product %d: %w", p.ProductID, err)
		}
		n++
	}
	return n, nil
}

func copiedTo(copied bool, primaryID string) string {
	if !copied {
		return "no"
	}
	return primaryID
}
