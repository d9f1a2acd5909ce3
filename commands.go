package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/moyoez/tvremote-go/api"
	"github.com/moyoez/tvremote-go/share"
	"github.com/moyoez/tvremote-go/tool"
	"github.com/moyoez/tvremote-go/transfer"
	"github.com/moyoez/tvremote-go/types"
)

const shutdownTimeout = 5 * time.Second

type cliOptions struct {
	log              string
	config           string
	timeout          float64
	mx               int
	iface            string
	multicastAddress string
	multicastPort    int
	app              string
	token            string
	port             int
	pingHint         bool
	count            int
	delay            float64
	host             string
	listen           string
}

func newRootCmd() *cobra.Command {
	return buildRootCmd(&cliOptions{})
}

func buildRootCmd(opts *cliOptions) *cobra.Command {
	root := &cobra.Command{
		Use:           "tvremote",
		Short:         "Discover Samsung TVs on the LAN and send volume keys",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.log, "log", "", "log mode: dev, prod or none")
	pf.StringVar(&opts.config, "config", "", "path to a YAML config file (default "+tool.ConfigPath+" when present)")
	pf.Float64Var(&opts.timeout, "timeout", 2.5, "discovery listen time in seconds")
	pf.IntVar(&opts.mx, "mx", 1, "SSDP MX response delay hint")
	pf.StringVar(&opts.iface, "interface", "", "network interface for multicast probes")
	pf.StringVar(&opts.multicastAddress, "multicast-address", "", "override the SSDP multicast address")
	pf.IntVar(&opts.multicastPort, "multicast-port", 0, "override the SSDP multicast port")
	pf.StringVar(&opts.app, "app", "", "app name shown on the TV")
	pf.StringVar(&opts.token, "token", "", "optional token previously issued by the TV")
	pf.IntVar(&opts.port, "port", tool.StatusPort, "control channel port")
	pf.BoolVar(&opts.pingHint, "ping-hint", false, "ping the TV after a failed connect to improve the error hints")

	root.AddCommand(newListCmd(opts))
	for _, action := range []types.KeyAction{types.KeyUp, types.KeyDown, types.KeyMute} {
		root.AddCommand(newKeyCmd(opts, action))
	}
	root.AddCommand(newServeCmd(opts))
	return root
}

// loadAppConfig reads the config file and applies flags the user set explicitly.
func loadAppConfig(cmd *cobra.Command, opts *cliOptions) (types.AppConfig, error) {
	tool.InitLogger()
	tool.SetLogMode(opts.log)

	cfg, err := tool.LoadConfig(opts.config)
	if err != nil {
		return cfg, err
	}
	applyFlagOverrides(cmd, opts, &cfg)
	return cfg, nil
}

func applyFlagOverrides(cmd *cobra.Command, opts *cliOptions, cfg *types.AppConfig) {
	flags := cmd.Flags()
	if flags.Changed("timeout") {
		cfg.ListenWindowMs = int(opts.timeout * 1000)
	}
	if flags.Changed("mx") && opts.mx > 0 {
		cfg.MX = opts.mx
	}
	if flags.Changed("interface") {
		cfg.NetworkInterface = opts.iface
	}
	if opts.multicastAddress != "" {
		cfg.MulticastAddress = opts.multicastAddress
	}
	if opts.multicastPort > 0 {
		cfg.MulticastPort = opts.multicastPort
	}
	if opts.app != "" {
		cfg.AppName = opts.app
	}
	if opts.token != "" {
		cfg.Token = opts.token
	}
	if flags.Changed("port") && opts.port > 0 {
		cfg.RemotePort = opts.port
	}
	if flags.Changed("ping-hint") {
		cfg.PingHint = opts.pingHint
	}
	if flags.Lookup("count") != nil && flags.Changed("count") {
		cfg.RepeatCount = opts.count
	}
	if flags.Lookup("delay") != nil && flags.Changed("delay") {
		cfg.InterSendDelayMs = int(opts.delay * 1000)
	}
	if flags.Lookup("listen") != nil && flags.Changed("listen") {
		cfg.APIListen = opts.listen
	}
}

func newListCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List discovered devices, most likely TV first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadAppConfig(cmd, opts)
			if err != nil {
				return err
			}
			cands, err := share.NewScanner(cfg).Run(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(cands) == 0 {
				fmt.Fprintln(out, "No SSDP devices found. Make sure TV is on and on the same LAN.")
				return &exitError{code: 1, err: types.ErrNoCandidateFound}
			}
			printCandidates(cmd, cands, cfg.LikelyThreshold, cfg.Vendor)
			return nil
		},
	}
}

func printCandidates(cmd *cobra.Command, cands []types.Candidate, threshold int, vendor string) {
	out := cmd.OutOrStdout()
	for i, c := range cands {
		fmt.Fprintf(out, "%2d. %s  [%s]  %s\n", i+1, c.Address, c.Tag(threshold, vendor), c.InfoSummary)
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Run one of:")
	fmt.Fprintf(out, "  %s up\n", cmd.Root().Name())
	fmt.Fprintf(out, "  %s down --count 5\n", cmd.Root().Name())
	fmt.Fprintf(out, "  %s mute\n", cmd.Root().Name())
}

func newKeyCmd(opts *cliOptions, action types.KeyAction) *cobra.Command {
	cmd := &cobra.Command{
		Use:   action.String(),
		Short: fmt.Sprintf("Send %s to the best matching TV", action.Code()),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadAppConfig(cmd, opts)
			if err != nil {
				return err
			}
			return runKey(cmd, cfg, opts.host, action)
		},
	}
	cmd.Flags().IntVar(&opts.count, "count", 1, "times to send the key")
	cmd.Flags().Float64Var(&opts.delay, "delay", 0.25, "delay between sends in seconds")
	cmd.Flags().StringVar(&opts.host, "host", "", "TV address; skips discovery")
	return cmd
}

func runKey(cmd *cobra.Command, cfg types.AppConfig, host string, action types.KeyAction) error {
	key := types.KeyCommand{
		Action:         action,
		RepeatCount:    cfg.RepeatCount,
		InterSendDelay: tool.Millis(cfg.InterSendDelayMs),
	}
	if err := key.Validate(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	target, info := host, "given by --host"
	if target == "" {
		cands, err := share.NewScanner(cfg).Run(cmd.Context())
		if err != nil {
			return err
		}
		best, err := chooseTarget(cmd, cands, cfg.LikelyThreshold)
		if err != nil {
			return err
		}
		target, info = best.Address, best.InfoSummary
	}

	fmt.Fprintf(out, "Using TV at %s (%s)\n", target, info)
	fmt.Fprintln(out, "If your TV prompts 'Allow this device', approve it with your physical remote.")

	if _, err := transfer.NewSender(cfg).Send(cmd.Context(), target, key); err != nil {
		var cerr *types.ConnectError
		if errors.As(err, &cerr) {
			printConnectError(cmd, cerr)
			return &exitError{code: 2, err: err}
		}
		return err
	}
	fmt.Fprintln(out, "Done.")
	return nil
}

// chooseTarget picks the device to control. Falling back to a weak candidate
// is always announced on stderr, whatever the log level.
func chooseTarget(cmd *cobra.Command, cands []types.Candidate, threshold int) (types.Candidate, error) {
	best, confident, err := share.SelectTarget(cands, threshold)
	if err != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "No devices found. Try: %s list\n", cmd.Root().Name())
		return best, &exitError{code: 1, err: err}
	}
	if !confident {
		fmt.Fprintf(cmd.ErrOrStderr(), "WARNING: %v; trying best candidate: %s\n", types.ErrNoConfidentCandidate, best.Address)
		tool.DefaultLogger.Debugf("Fallback candidate %s has score %d, threshold %d", best.Address, best.Score, threshold)
	}
	return best, nil
}

func printConnectError(cmd *cobra.Command, cerr *types.ConnectError) {
	errOut := cmd.ErrOrStderr()
	fmt.Fprintf(errOut, "ERROR: Could not connect to %s\n", cerr.URL)
	fmt.Fprintf(errOut, "  %v\n\n", cerr.Err)
	fmt.Fprintln(errOut, "Notes:")
	for _, hint := range cerr.Hints() {
		fmt.Fprintf(errOut, "  - %s\n", hint)
	}
}

func newServeCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the local HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadAppConfig(cmd, opts)
			if err != nil {
				return err
			}
			server := api.NewServer(cfg, share.NewScanner(cfg), transfer.NewSender(cfg))

			errCh := make(chan error, 1)
			go func() {
				errCh <- server.Start()
			}()

			select {
			case err := <-errCh:
				return err
			case <-cmd.Context().Done():
			}
			tool.DefaultLogger.Info("Shutting down API server")
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return server.Shutdown(ctx)
		},
	}
	cmd.Flags().StringVar(&opts.listen, "listen", api.DefaultListenAddress, "API listen address")
	return cmd
}
