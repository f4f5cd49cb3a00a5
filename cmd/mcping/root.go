package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/woozymasta/mcstatus/internal/bedrock"
	"github.com/woozymasta/mcstatus/internal/java"
	"github.com/woozymasta/mcstatus/internal/logger"
	"github.com/woozymasta/mcstatus/internal/query"
	"github.com/woozymasta/mcstatus/internal/resolver"
	"github.com/woozymasta/mcstatus/internal/vars"
)

type options struct {
	logLevel    string
	dnsProtocol string
	dnsServers  []string
	timeout     time.Duration
	port        uint16
	version     uint32
	json        bool
}

func newRootCmd() *cobra.Command {
	var opts options

	rootCmd := &cobra.Command{
		Use:           "mcping",
		Short:         "Query the status of a Minecraft Java or Bedrock edition server",
		Version:       vars.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			log.Logger = logger.New(logger.Config{Format: "console"}, cmd.ErrOrStderr())
			zerolog.SetGlobalLevel(logger.ParseLevel(opts.logLevel))
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.logLevel, "loglevel", "l", "warn", "Log level (trace, debug, info, warn, error)")
	flags.DurationVarP(&opts.timeout, "timeout", "t", 5*time.Second, "Query timeout")
	flags.StringSliceVar(&opts.dnsServers, "dns-server", nil, "Nameservers host[:port] (detected by default)")
	flags.StringVar(&opts.dnsProtocol, "dns-protocol", resolver.ProtoAuto, "DNS protocol: udp|tcp|auto")
	flags.BoolVar(&opts.json, "json", false, "Print the raw JSON response")
	flags.Uint16VarP(&opts.port, "port", "p", 0, "Server port (edition default or SRV when omitted)")

	javaCmd := &cobra.Command{
		Use:   "java <host[:port]>",
		Short: "Query a Java edition server (Server List Ping)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			host, port, err := splitTarget(args[0], opts.port)
			if err != nil {
				return err
			}

			res, err := newService(opts).QueryJava(cmd.Context(), host, port, opts.version)
			if err != nil {
				return err
			}

			if opts.json {
				return printJSON(cmd.OutOrStdout(), res)
			}
			renderJava(cmd.OutOrStdout(), res)
			return nil
		},
	}
	javaCmd.Flags().Uint32Var(&opts.version, "protocol", 0, "Protocol version sent in the handshake")

	bedrockCmd := &cobra.Command{
		Use:   "bedrock <host[:port]>",
		Short: "Query a Bedrock edition server (RakNet unconnected ping)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			host, port, err := splitTarget(args[0], opts.port)
			if err != nil {
				return err
			}

			res, err := newService(opts).QueryBedrock(cmd.Context(), host, port)
			if err != nil {
				return err
			}

			if opts.json {
				return printJSON(cmd.OutOrStdout(), res)
			}
			renderBedrock(cmd.OutOrStdout(), res)
			return nil
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := vars.Info()
			if opts.json {
				return printJSON(cmd.OutOrStdout(), info)
			}
			renderVersion(cmd.OutOrStdout(), info)
			return nil
		},
	}

	rootCmd.AddCommand(javaCmd, bedrockCmd, versionCmd)

	return rootCmd
}

// Execute runs the root command and exits with a non-zero status on failure.
func Execute() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newService(opts options) *query.Service {
	lookup := resolver.NewDNS(resolver.DNSOptions{
		Servers:  opts.dnsServers,
		Protocol: opts.dnsProtocol,
	})

	return query.NewService(
		resolver.New(lookup),
		java.NewClient(opts.timeout),
		bedrock.NewClient(opts.timeout),
		nil,
	)
}

// splitTarget accepts "host", "host:port" and "[v6]:port". An explicit --port wins.
func splitTarget(target string, port uint16) (string, uint16, error) {
	host, portStr, err := net.SplitHostPort(target)
	if err != nil {
		return target, port, nil
	}

	if port != 0 {
		return host, port, nil
	}

	p, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return "", 0, fmt.Errorf("invalid port %q", portStr)
	}

	return host, uint16(p), nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
