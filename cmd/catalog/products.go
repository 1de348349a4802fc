package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/coderz/catalog-client/internal/core/domain"
	"github.com/coderz/catalog-client/internal/infrastructure/queue"
	"github.com/coderz/catalog-client/pkg/logger"
)

func newProductsCommand(s *session) *cobra.Command {
	productsCmd := &cobra.Command{
		Use:           "products",
		Short:         "List and manage catalog products",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	listCmd := &cobra.Command{
		Use:           "list",
		Short:         "List all products",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := s.app(cmd)
			if err != nil {
				return err
			}
			return printResult(newOutputFormatter(cmd), a.products.List(cmd.Context()), printProducts)
		},
	}

	getCmd := &cobra.Command{
		Use:           "get <id>",
		Short:         "Show one product",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			a, err := s.app(cmd)
			if err != nil {
				return err
			}
			return printResult(newOutputFormatter(cmd), a.products.Get(cmd.Context(), id), printProduct)
		},
	}

	createCmd := &cobra.Command{
		Use:           "create",
		Short:         "Create a product",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := s.app(cmd)
			if err != nil {
				return err
			}
			name, _ := cmd.Flags().GetString("name")
			price, _ := cmd.Flags().GetFloat64("price")
			quantity, _ := cmd.Flags().GetInt("quantity")
			res := a.products.Create(cmd.Context(), domain.ProductInput{Name: name, Price: price, Quantity: quantity})
			return printResult(newOutputFormatter(cmd), res, printProduct)
		},
	}
	addProductFlags(createCmd)

	updateCmd := &cobra.Command{
		Use:           "update <id>",
		Short:         "Replace the fields given as flags on a product",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			a, err := s.app(cmd)
			if err != nil {
				return err
			}
			out := newOutputFormatter(cmd)
			current := a.products.Get(cmd.Context(), id)
			if !current.Success {
				return printResult(out, current, nil)
			}
			p := current.Data.Clone()
			flags := cmd.Flags()
			if flags.Changed("name") {
				p.Name, _ = flags.GetString("name")
			}
			if flags.Changed("price") {
				p.Price, _ = flags.GetFloat64("price")
			}
			if flags.Changed("quantity") {
				p.Quantity, _ = flags.GetInt("quantity")
			}
			return printResult(out, a.products.Update(cmd.Context(), id, p), printProduct)
		},
	}
	addProductFlags(updateCmd)

	deleteCmd := &cobra.Command{
		Use:           "delete <id>",
		Short:         "Delete a product",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			a, err := s.app(cmd)
			if err != nil {
				return err
			}
			return printResult(newOutputFormatter(cmd), a.products.Delete(cmd.Context(), id), nil)
		},
	}

	searchCmd := &cobra.Command{
		Use:           "search <query>",
		Short:         "Find products by name or id",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := s.app(cmd)
			if err != nil {
				return err
			}
			return printResult(newOutputFormatter(cmd), a.products.Search(cmd.Context(), args[0]), printProducts)
		},
	}

	statsCmd := &cobra.Command{
		Use:           "stats",
		Short:         "Summarise the catalog",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := s.app(cmd)
			if err != nil {
				return err
			}
			return printResult(newOutputFormatter(cmd), a.products.Statistics(cmd.Context()), printStatistics)
		},
	}

	exportCmd := &cobra.Command{
		Use:           "export",
		Short:         "Write a snapshot of all products",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := s.app(cmd)
			if err != nil {
				return err
			}
			res := a.products.Export(cmd.Context())
			return printResult(newOutputFormatter(cmd), res, func(w io.Writer, r domain.ExportReceipt) {
				fmt.Fprintf(w, "%s (%d products)\n", r.Location, r.Count)
			})
		},
	}

	importCmd := &cobra.Command{
		Use:           "import <file>",
		Short:         "Create products from a JSON array file (- for stdin)",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("open import file: %w", err)
				}
				defer f.Close()
				r = f
			}
			a, err := s.app(cmd)
			if err != nil {
				return err
			}
			return printResult(newOutputFormatter(cmd), a.products.Import(cmd.Context(), r), printImportSummary)
		},
	}

	editCmd := &cobra.Command{
		Use:   "edit <id> <field=value>...",
		Short: "Edit product fields in place",
		Long: `Edit product fields in place.

Each field=value pair is applied as one cell edit: the current record is
fetched, the field is merged and the whole record is written back. A failed
edit restores the previous value. Editable fields: name, price, quantity.`,
		Args:          cobra.MinimumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			pairs, err := parseAssignments(args[1:])
			if err != nil {
				return err
			}
			a, err := s.app(cmd)
			if err != nil {
				return err
			}
			return runEdits(cmd, a, id, pairs)
		},
	}
	editCmd.Flags().Int("workers", 0, "Number of edit workers (default 4)")

	productsCmd.AddCommand(listCmd, getCmd, createCmd, updateCmd, deleteCmd,
		searchCmd, statsCmd, exportCmd, importCmd, editCmd)
	return productsCmd
}

func addProductFlags(cmd *cobra.Command) {
	cmd.Flags().String("name", "", "Product name")
	cmd.Flags().Float64("price", 0, "Unit price")
	cmd.Flags().Int("quantity", 0, "Units in stock")
}

func parseID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid product id %q", arg)
	}
	return id, nil
}

type assignment struct {
	field string
	value string
}

func parseAssignments(args []string) ([]assignment, error) {
	out := make([]assignment, 0, len(args))
	for _, arg := range args {
		field, value, ok := strings.Cut(arg, "=")
		field = strings.ToLower(strings.TrimSpace(field))
		if !ok || field == "" {
			return nil, fmt.Errorf("expected field=value, got %q", arg)
		}
		if _, known := domain.KindOf(field); !known {
			return nil, fmt.Errorf("%w: %q", domain.ErrUnknownField, field)
		}
		out = append(out, assignment{field: field, value: value})
	}
	return out, nil
}

// editReport is the JSON form of one settled edit.
type editReport struct {
	Field string `json:"field"`
	Input string `json:"input"`
	domain.EditOutcome
	Error string `json:"error,omitempty"`
}

// runEdits turns each assignment into a blur on the matching cell of record
// id and reports the outcomes in argument order.
func runEdits(cmd *cobra.Command, a *app, id int, pairs []assignment) error {
	out := newOutputFormatter(cmd)
	current := a.products.Get(cmd.Context(), id)
	if !current.Success {
		return printResult(out, current, nil)
	}

	cells := make(map[string]*domain.Cell)
	for _, p := range pairs {
		if _, ok := cells[p.field]; ok {
			continue
		}
		value, err := domain.FieldValue(*current.Data, p.field)
		if err != nil {
			return err
		}
		cells[p.field] = domain.NewCell(id, p.field, value)
	}

	workers, _ := cmd.Flags().GetInt("workers")
	d := queue.NewDispatcher(workers, a.editor, logger.Component("dispatcher"))
	d.Start(cmd.Context())
	collected := make(chan []queue.Result, 1)
	go func() {
		var results []queue.Result
		for r := range d.Results() {
			results = append(results, r)
		}
		collected <- results
	}()
	var enqueueErr error
	for _, p := range pairs {
		if enqueueErr = d.Enqueue(queue.Edit{Cell: cells[p.field], Input: p.value}); enqueueErr != nil {
			break
		}
	}
	d.Stop()
	results := <-collected
	if enqueueErr != nil {
		return enqueueErr
	}

	// All edits target one record, so one worker settles them in order.
	reports := make([]editReport, 0, len(results))
	failed := false
	for _, r := range results {
		rep := editReport{Field: r.Edit.Cell.Field, Input: r.Edit.Input, EditOutcome: r.Outcome}
		if r.Err != nil {
			rep.Error = r.Err.Error()
			failed = true
		}
		reports = append(reports, rep)
	}

	if out.jsonMode {
		if err := out.printJSON(reports); err != nil {
			return err
		}
	} else {
		for _, rep := range reports {
			line := fmt.Sprintf("%s=%q: %s -> %s", rep.Field, rep.Input, rep.State, rep.Value)
			if rep.Message != "" {
				line += " (" + rep.Message + ")"
			}
			if rep.Error != "" {
				fmt.Fprintf(out.errOut, "%s: %s\n", line, rep.Error)
				continue
			}
			fmt.Fprintln(out.out, line)
		}
	}
	if failed {
		return errReported
	}
	return nil
}
