package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/coderz/catalog-client/internal/core/domain"
)

// outputFormatter prints result envelopes either as JSON or as plain text.
type outputFormatter struct {
	out      io.Writer
	errOut   io.Writer
	jsonMode bool
}

func newOutputFormatter(cmd *cobra.Command) *outputFormatter {
	jsonMode, _ := cmd.Flags().GetBool("json")
	return &outputFormatter{out: cmd.OutOrStdout(), errOut: cmd.ErrOrStderr(), jsonMode: jsonMode}
}

func (f *outputFormatter) printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(f.out, string(data))
	return err
}

// printResult renders res. human draws the payload of a successful result in
// text mode and may be nil. A failed result yields errReported.
func printResult[T any](f *outputFormatter, res domain.Result[T], human func(io.Writer, T)) error {
	if f.jsonMode {
		if err := f.printJSON(res); err != nil {
			return err
		}
	} else if res.Success {
		fmt.Fprintln(f.out, res.Message)
		if human != nil && res.Data != nil {
			human(f.out, *res.Data)
		}
	} else if res.Error != "" {
		fmt.Fprintf(f.errOut, "Error: %s (%s)\n", res.Message, res.Error)
	} else {
		fmt.Fprintf(f.errOut, "Error: %s\n", res.Message)
	}
	if !res.Success {
		return errReported
	}
	return nil
}

func printProducts(w io.Writer, products []domain.Product) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPRICE\tQUANTITY\tVALUE")
	for _, p := range products {
		stock := ""
		if p.IsLowStock() {
			stock = " (low)"
		}
		fmt.Fprintf(tw, "%d\t%s\t%.2f\t%d%s\t%.2f\n", p.ID, p.Name, p.Price, p.Quantity, stock, p.Value())
	}
	tw.Flush()
}

func printProduct(w io.Writer, p domain.Product) {
	printProducts(w, []domain.Product{p})
}

func printStatistics(w io.Writer, s domain.Statistics) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Products:\t%d\n", s.TotalProducts)
	fmt.Fprintf(tw, "Total value:\t%.2f\n", s.TotalValue)
	fmt.Fprintf(tw, "Average price:\t%.2f\n", s.AveragePrice)
	fmt.Fprintf(tw, "Low stock:\t%d\n", s.LowStock)
	tw.Flush()
}

func printImportSummary(w io.Writer, s domain.ImportSummary) {
	for _, fail := range s.Failures {
		if fail.Name != "" {
			fmt.Fprintf(w, "  #%d %s: %s\n", fail.Index, fail.Name, fail.Reason)
		} else {
			fmt.Fprintf(w, "  #%d: %s\n", fail.Index, fail.Reason)
		}
	}
}

func printSession(w io.Writer, s domain.Session) {
	fmt.Fprintf(w, "Role: %s\n", s.Role)
	if s.Claims == nil {
		return
	}
	if s.Claims.Subject != "" {
		fmt.Fprintf(w, "Subject: %s\n", s.Claims.Subject)
	}
	if !s.Claims.ExpiresAt.IsZero() {
		fmt.Fprintf(w, "Expires: %s\n", s.Claims.ExpiresAt.Local().Format("2006-01-02 15:04"))
	}
}

func printProxyStatus(w io.Writer, s domain.ProxyStatus) {
	fmt.Fprintf(w, "Environment: %s\n", s.Environment)
	fmt.Fprintf(w, "Proxy enabled: %t\n", s.Enabled)
	for i, t := range s.Templates {
		marker := " "
		if i == s.Index {
			marker = "*"
		}
		fmt.Fprintf(w, "%s %d %s\n", marker, i, t)
	}
	fmt.Fprintf(w, "Effective URL: %s\n", s.EffectiveURL)
}
