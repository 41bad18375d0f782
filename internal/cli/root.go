// Package cli implements sellerctl, a terminal client for the seller backend.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-seller-client/identity"
	"github.com/jrsteele09/go-seller-client/internal/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const (
	idTokenEnv      = "SELLER_ID_TOKEN"
	refreshTokenEnv = "SELLER_REFRESH_TOKEN"
)

type options struct {
	cfg      config.Config
	out      io.Writer
	errOut   io.Writer
	provider identity.Provider
}

type Option func(*options)

func WithConfig(cfg config.Config) Option {
	return func(o *options) { o.cfg = cfg }
}

// WithOutput sends command output to out and diagnostics to errOut.
func WithOutput(out, errOut io.Writer) Option {
	return func(o *options) {
		o.out = out
		o.errOut = errOut
	}
}

// WithProvider skips token sign-in and uses p as the identity provider.
func WithProvider(p identity.Provider) Option {
	return func(o *options) { o.provider = p }
}

type rootFlags struct {
	baseURL      string
	idToken      string
	refreshToken string
	logLevel     string
	jsonOutput   bool
	metrics      bool
	banner       bool
}

// env is shared by every subcommand of one root command.
type env struct {
	opts  options
	flags rootFlags
}

func NewRootCommand(opts ...Option) *cobra.Command {
	e := &env{opts: options{cfg: config.New(), out: os.Stdout, errOut: os.Stderr}}
	for _, opt := range opts {
		opt(&e.opts)
	}

	root := &cobra.Command{
		Use:   "sellerctl",
		Short: "Manage a seller account from the terminal",
		Long: `sellerctl talks to the seller backend on behalf of a signed-in seller.

Sign in by passing the identity token with --id-token or the ` + idTokenEnv + `
environment variable. A refresh token lets long running commands such as
"orders track" outlive the identity token.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := configureLogging(e.flags.logLevel, e.opts.errOut); err != nil {
				return err
			}
			if e.flags.banner {
				displayAppname(e.opts.out, e.opts.cfg.GetAppName())
			}
			return nil
		},
	}
	root.SetOut(e.opts.out)
	root.SetErr(e.opts.errOut)

	flags := root.PersistentFlags()
	flags.StringVar(&e.flags.baseURL, "base-url", e.opts.cfg.GetBaseURL(), "seller backend origin")
	flags.StringVar(&e.flags.idToken, "id-token", os.Getenv(idTokenEnv), "identity token of the signed-in seller")
	flags.StringVar(&e.flags.refreshToken, "refresh-token", os.Getenv(refreshTokenEnv), "refresh token used to renew the identity token")
	flags.StringVar(&e.flags.logLevel, "log-level", e.opts.cfg.GetLogLevel(), "log level (debug, info, warn, error)")
	flags.BoolVar(&e.flags.jsonOutput, "json", false, "print results as JSON")
	flags.BoolVar(&e.flags.metrics, "metrics", false, "print request counts when the command finishes")
	flags.BoolVar(&e.flags.banner, "banner", false, "print the application banner")

	root.AddCommand(
		newWhoamiCommand(e),
		newDashboardCommand(e),
		newWalletCommand(e),
		newOrdersCommand(e),
		newProductsCommand(e),
		newShopCommand(e),
	)
	return root
}

// ExecuteContext runs sellerctl with the process arguments.
func ExecuteContext(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

// run connects, runs fn and closes the stack again.
func (e *env) run(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := e.connect(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	err = fn(ctx, a)
	if e.flags.metrics {
		printMetrics(e.opts.errOut, a.registry)
	}
	return err
}

func configureLogging(level string, w io.Writer) error {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}).With().Timestamp().Logger()
	return nil
}

func displayAppname(w io.Writer, appname string) {
	fig := figure.NewFigure(appname, "cybermedium", true)
	fmt.Fprintln(w, fig.String())
}

func printMetrics(w io.Writer, registry prometheus.Gatherer) {
	families, err := registry.Gather()
	if err != nil {
		log.Error().Err(err).Msg("Failed to gather metrics")
		return
	}
	for _, mf := range families {
		if mf.GetName() != "seller_gateway_requests_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := make([]string, 0, len(m.GetLabel()))
			for _, l := range m.GetLabel() {
				labels = append(labels, l.GetName()+"="+l.GetValue())
			}
			fmt.Fprintf(w, "requests{%s} %.0f\n", strings.Join(labels, ","), m.GetCounter().GetValue())
		}
	}
}
