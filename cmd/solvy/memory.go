package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/HendryAvila/solvy/internal/memory"
	"github.com/HendryAvila/solvy/internal/memtools"
	solvyserver "github.com/HendryAvila/solvy/internal/server"
	"github.com/spf13/cobra"
)

func newMemoryCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "memory",
		Short: "Inspect and maintain the solver memory",
	}
	cmd.AddCommand(
		newMemoryStatsCmd(g),
		newMemorySearchCmd(g),
		newMemoryExportCmd(g),
		newMemoryImportCmd(g),
	)
	return cmd
}

// withMemory opens the store for the duration of fn.
func (g *globals) withMemory(cmd *cobra.Command, fn func(*memory.Store) error) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}
	logger, err := g.logger(cfg)
	if err != nil {
		return err
	}
	store, err := solvyserver.OpenMemory(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func newMemoryStatsCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show record counts per domain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return g.withMemory(cmd, func(store *memory.Store) error {
				stats, err := store.Stats(cmd.Context())
				if err != nil {
					return err
				}
				_, err = fmt.Fprint(cmd.OutOrStdout(), memtools.FormatStats(stats))
				return err
			})
		},
	}
}

func newMemorySearchCmd(g *globals) *cobra.Command {
	var (
		domain      string
		taskContext string
		limit       int
		detail      string
	)
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search stored solutions or resources",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d := memory.Domain(domain)
			if err := memory.ValidateDomain(d); err != nil {
				return err
			}
			level := memory.ParseDetailLevel(detail)
			return g.withMemory(cmd, func(store *memory.Store) error {
				hits, err := store.Query(cmd.Context(), d, taskContext, args[0], limit)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(hits) == 0 {
					_, err = fmt.Fprintln(out, "No records found matching your query.")
					return err
				}
				for i, h := range hits {
					fmt.Fprintf(out, "[%d] %s\n\n", i+1, memory.Describe(h, level))
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&domain, "domain", string(memory.DomainSolutions), "memory domain: solutions, resources_text, resources_code")
	cmd.Flags().StringVar(&taskContext, "context", "", "subject area to match")
	cmd.Flags().IntVar(&limit, "limit", 5, "max results")
	cmd.Flags().StringVar(&detail, "detail", "", "detail level: summary, standard, full")
	return cmd
}

func newMemoryExportCmd(g *globals) *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export every record as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return g.withMemory(cmd, func(store *memory.Store) error {
				data, err := store.Export(cmd.Context())
				if err != nil {
					return err
				}
				var w io.Writer = cmd.OutOrStdout()
				if outPath != "" {
					f, err := os.Create(outPath)
					if err != nil {
						return fmt.Errorf("creating %s: %w", outPath, err)
					}
					defer f.Close()
					w = f
				}
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(data)
			})
		},
	}
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "write to file instead of stdout")
	return cmd
}

func newMemoryImportCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import records from a JSON export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}
			var data memory.ExportData
			if err := json.Unmarshal(raw, &data); err != nil {
				return fmt.Errorf("parsing %s: %w", args[0], err)
			}
			return g.withMemory(cmd, func(store *memory.Store) error {
				res, err := store.Import(cmd.Context(), &data)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "Imported %d records, skipped %d.\n", res.Imported, res.Skipped)
				return err
			})
		},
	}
}
