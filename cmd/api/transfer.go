package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"taskflow/internal/transfer"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// formatFor picks the explicit format or guesses it from the file name.
func formatFor(flag, file string) (transfer.Format, error) {
	if flag != "" {
		return transfer.ParseFormat(flag)
	}
	switch filepath.Ext(file) {
	case ".yml", ".yaml":
		return transfer.FormatYAML, nil
	default:
		return transfer.FormatJSON, nil
	}
}

func exportCmd() *cobra.Command {
	var subscription, format, file string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the task trees of a subscription",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			subscriptionID, err := uuid.Parse(subscription)
			if err != nil {
				return fmt.Errorf("invalid --subscription: %w", err)
			}
			f, err := formatFor(format, file)
			if err != nil {
				return err
			}

			a, err := initApp(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			roots, err := a.Services().Tasks.Export(cmd.Context(), subscriptionID)
			if err != nil {
				return err
			}
			doc := transfer.Export(subscriptionID, roots, time.Now())

			var out io.Writer = cmd.OutOrStdout()
			if file != "" {
				fh, err := os.Create(file)
				if err != nil {
					return fmt.Errorf("create %s: %w", file, err)
				}
				defer fh.Close()
				out = fh
			}
			return transfer.Encode(out, doc, f)
		},
	}
	cmd.Flags().StringVar(&subscription, "subscription", "", "subscription id to export")
	cmd.Flags().StringVar(&format, "format", "", "json or yaml (default from file extension, else json)")
	cmd.Flags().StringVarP(&file, "file", "f", "", "output file (default stdout)")
	_ = cmd.MarkFlagRequired("subscription")
	return cmd
}

func importCmd() *cobra.Command {
	var subscription, format, file string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import task trees from an export file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := formatFor(format, file)
			if err != nil {
				return err
			}

			var in io.Reader = cmd.InOrStdin()
			if file != "" {
				fh, err := os.Open(file)
				if err != nil {
					return fmt.Errorf("open %s: %w", file, err)
				}
				defer fh.Close()
				in = fh
			}
			doc, err := transfer.Decode(in, f)
			if err != nil {
				return err
			}
			roots, err := doc.ToTasks()
			if err != nil {
				return err
			}

			target := doc.SubscriptionID
			if subscription != "" {
				if target, err = uuid.Parse(subscription); err != nil {
					return fmt.Errorf("invalid --subscription: %w", err)
				}
			}

			a, err := initApp(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.Services().Tasks.Import(cmd.Context(), target, roots)
			if err != nil {
				return fmt.Errorf("imported %d tasks before failing: %w", n, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d tasks\n", n)
			return nil
		},
	}
	cmd.Flags().StringVar(&subscription, "subscription", "", "target subscription id (default the one in the file)")
	cmd.Flags().StringVar(&format, "format", "", "json or yaml (default from file extension, else json)")
	cmd.Flags().StringVarP(&file, "file", "f", "", "input file (default stdin)")
	return cmd
}
