package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/coderz/catalog-client/internal/core/domain"
	"github.com/coderz/catalog-client/internal/core/service"
)

func newProxyCommand(s *session) *cobra.Command {
	proxyCmd := &cobra.Command{
		Use:           "proxy",
		Short:         "Control CORS proxy routing",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	simple := func(use, short string, op func(*service.ProxyService, context.Context) domain.Result[domain.ProxyStatus]) *cobra.Command {
		return &cobra.Command{
			Use:           use,
			Short:         short,
			Args:          cobra.NoArgs,
			SilenceUsage:  true,
			SilenceErrors: true,
			RunE: func(cmd *cobra.Command, _ []string) error {
				a, err := s.app(cmd)
				if err != nil {
					return err
				}
				return printResult(newOutputFormatter(cmd), op(a.proxy, cmd.Context()), printProxyStatus)
			},
		}
	}

	switchCmd := &cobra.Command{
		Use:           "switch <index>",
		Short:         "Select the proxy template at index",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid proxy index %q", args[0])
			}
			a, err := s.app(cmd)
			if err != nil {
				return err
			}
			return printResult(newOutputFormatter(cmd), a.proxy.Switch(cmd.Context(), index), printProxyStatus)
		},
	}

	proxyCmd.AddCommand(
		simple("enable", "Route requests through the selected proxy", (*service.ProxyService).Enable),
		simple("disable", "Send requests directly", (*service.ProxyService).Disable),
		switchCmd,
		simple("show", "Show the routing state", (*service.ProxyService).Show),
		simple("reset", "Disable the proxy and forget the stored choice", (*service.ProxyService).Reset),
		simple("auto", "Probe direct and proxied routes and keep the first that answers", (*service.ProxyService).AutoDetect),
	)
	return proxyCmd
}
