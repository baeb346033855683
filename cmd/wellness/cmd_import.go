package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/wellness360/app/services"
	"github.com/shashiranjanraj/wellness360/config"
	"github.com/shashiranjanraj/wellness360/internal/server"
)

var (
	importAsFlag       uint
	templateFormatFlag string
	templateOutFlag    string
)

// wellness import <zip>
var importCmd = &cobra.Command{
	Use:   "import <zip>",
	Short: "Bulk-import products from a ZIP of a CSV or XLSX sheet plus images",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		info, err := f.Stat()
		if err != nil {
			return err
		}

		ctx := context.Background()
		rt, err := server.Boot(ctx)
		if err != nil {
			return err
		}
		defer rt.Close(ctx)

		if limit := config.ImportMaxBytes(); info.Size() > limit {
			return fmt.Errorf("%s is %d bytes, the limit is %d", args[0], info.Size(), limit)
		}
		res, err := rt.App.Importer.Import(ctx, importAsFlag, filepath.Base(args[0]), f, info.Size())
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	},
}

// wellness template
var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Write the bulk-import template",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := os.Stdout
		if templateOutFlag != "" {
			f, err := os.Create(templateOutFlag)
			if err != nil {
				return err
			}
			defer f.Close()
			out = f
		}
		switch strings.ToLower(templateFormatFlag) {
		case "csv":
			return services.WriteTemplateCSV(out)
		case "xlsx":
			return services.WriteTemplateXLSX(out)
		default:
			return fmt.Errorf("unknown format %q (csv or xlsx)", templateFormatFlag)
		}
	},
}

func init() {
	importCmd.Flags().UintVar(&importAsFlag, "as", 0, "Admin customer id recorded on the import report")
	templateCmd.Flags().StringVarP(&templateFormatFlag, "format", "f", "csv", "Template format: csv or xlsx")
	templateCmd.Flags().StringVarP(&templateOutFlag, "output", "o", "", "Write to a file instead of stdout")
}
