package main

import (
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/psi-indicator-engine/internal/database"
	"github.com/psi-indicator-engine/internal/indicator"
	"github.com/psi-indicator-engine/internal/reference"
)

type validateReport struct {
	Info    reference.Info `json:"info"`
	Missing []string       `json:"missing,omitempty"`
}

func referenceCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reference",
		Short: "Inspect and import reference bundles",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "validate <bundle>",
		Short: "Check that a bundle parses and covers every indicator",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := reference.LoadFile(args[0])
			if err != nil {
				return err
			}
			report := validateReport{
				Info:    ref.Info(),
				Missing: ref.Missing(indicator.NewRegistry().RequiredCodeSets()),
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(report); err != nil {
				return err
			}
			if len(report.Missing) > 0 {
				return fmt.Errorf("bundle is missing %d required code sets", len(report.Missing))
			}
			return nil
		},
	})

	importCmd := &cobra.Command{
		Use:   "import <bundle>",
		Short: "Load a bundle into the PostgreSQL reference tables",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			databaseURL, _ := cmd.Flags().GetString("database-url")
			migrate, _ := cmd.Flags().GetBool("migrate")
			logger := root.logger(cmd)
			ctx := cmd.Context()

			bundle, digest, err := reference.ReadBundle(args[0])
			if err != nil {
				return err
			}
			// Parse the bundle fully before touching the database
			if _, err := reference.FromBundle(bundle, args[0], digest); err != nil {
				return err
			}

			if migrate {
				runner, err := database.NewMigrationRunner(databaseURL, logger)
				if err != nil {
					return err
				}
				err = runner.Up()
				runner.Close()
				if err != nil {
					return err
				}
			}

			pool, err := pgxpool.New(ctx, databaseURL)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer pool.Close()

			if err := reference.Import(ctx, pool, bundle, digest); err != nil {
				return err
			}
			logger.WithFields(logrus.Fields{
				"version":   bundle.Version,
				"code_sets": len(bundle.CodeSets),
				"digest":    digest,
			}).Info("Reference imported")
			fmt.Fprintf(cmd.OutOrStdout(), "Imported reference %s (%d code sets)\n", bundle.Version, len(bundle.CodeSets))
			return nil
		},
	}
	importCmd.Flags().String("database-url", "", "PostgreSQL connection URL")
	importCmd.Flags().Bool("migrate", true, "apply schema migrations before importing")
	_ = importCmd.MarkFlagRequired("database-url")
	cmd.AddCommand(importCmd)

	return cmd
}
