package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/floracare/internal/plants"
	"github.com/JaimeStill/floracare/pkg/pagination"
)

func newHistoryCmd() *cobra.Command {
	var (
		limit int
		purge bool
	)

	cmd := &cobra.Command{
		Use:   "history <plant>",
		Short: "Show or clear a plant's diagnosis history",
		Example: `  floracare history Tom
  floracare history Tom --limit 10
  floracare history Tom --clear`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			name := args[0]

			s, err := openDatabase()
			if err != nil {
				return err
			}
			defer s.Close()

			out := cmd.OutOrStdout()

			if purge {
				n, err := s.plants.DeleteHistory(ctx, name)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Removed %d entries for %s.\n", n, name)
				return nil
			}

			entries, err := s.plants.Logs(ctx, name, limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintf(out, "No history for %s.\n", name)
				return nil
			}

			for _, e := range entries {
				fmt.Fprintln(out, e.Summary())
				if e.Weather != nil {
					fmt.Fprintf(out, "    %s\n", e.Weather.Summary())
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum entries to show, newest first")
	cmd.Flags().BoolVar(&purge, "clear", false, "Delete every entry for the plant")

	return cmd
}

func newPlantsCmd() *cobra.Command {
	var (
		search   string
		page     int
		pageSize int
	)

	cmd := &cobra.Command{
		Use:     "plants",
		Aliases: []string{"ls"},
		Short:   "List tracked plants",
		Example: `  floracare plants
  floracare plants --search tom`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openDatabase()
			if err != nil {
				return err
			}
			defer s.Close()

			req := pagination.PageRequest{Page: page, PageSize: pageSize}
			if search != "" {
				req.Search = &search
			}

			result, err := s.plants.List(cmd.Context(), req, plants.Filters{})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if result.Total == 0 {
				fmt.Fprintln(out, "No plants tracked.")
				return nil
			}

			fmt.Fprintf(out, "Plants (%d, page %d of %d):\n", result.Total, result.Page, result.TotalPages)
			for _, p := range result.Data {
				species := p.Species
				if species == "" {
					species = "unknown species"
				}
				fmt.Fprintf(out, "  %-20s %s\n", p.Name, species)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&search, "search", "s", "", "Filter by name or species")
	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	cmd.Flags().IntVar(&pageSize, "page-size", 0, "Results per page")

	return cmd
}
