// Command catalog is a terminal client for the product catalog API.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/coderz/catalog-client/internal/pkg/config"
	"github.com/coderz/catalog-client/pkg/logger"
)

// errReported marks a failure whose envelope has already been printed.
var errReported = errors.New("command failed")

// session lazily builds the app on first use so commands that fail argument
// validation never touch storage.
type session struct {
	a *app
}

func (s *session) app(cmd *cobra.Command) (*app, error) {
	if s.a != nil {
		return s.a, nil
	}
	ctx := cmd.Context()
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	logger.Init(logger.Options{Level: cfg.Logging.Level, Pretty: cfg.Logging.Pretty})

	locale, _ := cmd.Flags().GetString("locale")
	if locale == "" {
		locale = cfg.Output.Locale
	}
	a, err := newApp(ctx, cfg, locale)
	if err != nil {
		return nil, err
	}
	s.a = a
	return a, nil
}

func (s *session) close(ctx context.Context) error {
	if s.a == nil {
		return nil
	}
	err := s.a.Close(ctx)
	s.a = nil
	return err
}

// newRootCommand assembles the full command tree around s.
func newRootCommand(s *session) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "catalog",
		Short:         "Manage the product catalog from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().Bool("json", false, "Output in JSON format")
	rootCmd.PersistentFlags().String("locale", "", "Message language (en, ar); defaults to CATALOG_LOCALE")
	rootCmd.PersistentFlags().Bool("metrics", false, "Print request metrics to stderr after the command")

	rootCmd.AddCommand(
		newAuthCommand(s),
		newProductsCommand(s),
		newProxyCommand(s),
	)
	return rootCmd
}

// run executes one command line. Storage is closed and metrics are dumped
// whether or not the command succeeded.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	s := &session{}
	rootCmd := newRootCommand(s)
	rootCmd.SetArgs(args)
	rootCmd.SetIn(stdin)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	err := rootCmd.ExecuteContext(ctx)
	if dump, _ := rootCmd.PersistentFlags().GetBool("metrics"); dump {
		if merr := writeMetrics(stderr); merr != nil && err == nil {
			err = merr
		}
	}
	if cerr := s.close(ctx); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

// writeMetrics dumps the default registry in the Prometheus text format.
func writeMetrics(w io.Writer) error {
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("encode metrics: %w", err)
		}
	}
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	if err == nil {
		return
	}
	if !errors.Is(err, errReported) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	stop()
	os.Exit(1)
}
