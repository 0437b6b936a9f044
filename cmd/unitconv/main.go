package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"unitconv"
	unitconvhistory "unitconv/history"
	unitconvmsgpack "unitconv/msgpack"
	unitconvrpc "unitconv/rpc"
	unitconvwatch "unitconv/watch"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

type app struct {
	configPath string
	cfg        Config
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{cfg: DefaultConfig()}
	var (
		db        string
		locale    string
		precision int
		catalogs  []string
	)

	rootCmd := &cobra.Command{
		Use:   "unitconv",
		Short: "Convert values between units of measure",
		Long: `unitconv converts values between the units of a fixed catalog of
categories (Length, Temperature, Mass, Fuel Economy, ...).

Extra factor-based categories can be loaded from YAML catalogs, conversions
can be logged to SQLite, and the catalog can be served over UDP or TCP.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if a.configPath != "" {
				cfg, err := LoadConfig(a.configPath)
				if err != nil {
					return err
				}
				a.cfg = cfg
			}
			flags := cmd.Flags()
			if flags.Changed("db") {
				a.cfg.DB = db
			}
			if flags.Changed("locale") {
				a.cfg.Locale = locale
			}
			if flags.Changed("precision") {
				a.cfg.Precision = precision
			}
			if flags.Changed("catalog") {
				a.cfg.Catalogs = append(a.cfg.Catalogs, catalogs...)
			}
			return a.cfg.Validate()
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "YAML config file")
	pf.StringVar(&db, "db", "", "SQLite file for conversion history")
	pf.StringVar(&locale, "locale", "en", "locale for number formatting")
	pf.IntVar(&precision, "precision", unitconv.Precision, "fraction digits shown in results")
	pf.StringSliceVar(&catalogs, "catalog", nil, "extra YAML catalog (repeatable)")

	rootCmd.AddCommand(a.categoriesCmd())
	rootCmd.AddCommand(a.unitsCmd())
	rootCmd.AddCommand(a.convertCmd())
	rootCmd.AddCommand(a.historyCmd())
	rootCmd.AddCommand(a.serveCmd())
	rootCmd.AddCommand(a.remoteCmd())
	return rootCmd
}

func (a *app) registry() (*unitconv.Registry, error) {
	var extra []*unitconv.Category
	for _, p := range a.cfg.Catalogs {
		cats, err := unitconv.LoadCatalogFile(p)
		if err != nil {
			return nil, err
		}
		extra = append(extra, cats...)
	}
	if len(extra) == 0 {
		return unitconv.Default(), nil
	}
	return unitconv.Default().With(extra...)
}

func (a *app) openHistory() (*unitconvhistory.Store, error) {
	if a.cfg.DB == "" {
		return nil, fmt.Errorf("no history database: set --db or db in the config")
	}
	return unitconvhistory.Open(a.cfg.DB)
}

func (a *app) categoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List conversion categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.registry()
			if err != nil {
				return err
			}
			for _, name := range reg.ListCategories() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

func (a *app) unitsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "units <category>",
		Short: "List the units of a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.registry()
			if err != nil {
				return err
			}
			name, err := reg.ResolveCategory(args[0])
			if err != nil {
				return err
			}
			units, err := reg.UnitsFor(name)
			if err != nil {
				return err
			}
			for _, u := range units {
				fmt.Fprintln(cmd.OutOrStdout(), u)
			}
			return nil
		},
	}
}

func (a *app) convertCmd() *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "convert <category> <value> [from] [to]",
		Short: "Convert a value",
		Long: `Convert a value between two units of a category. Names are matched
case-insensitively; omitted units default to the category's first and
second unit.`,
		Example: `  unitconv convert length 1 kilometer meter
  unitconv convert Temperature -40 Celsius Fahrenheit`,
		Args: cobra.RangeArgs(2, 4),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.registry()
			if err != nil {
				return err
			}
			value, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid value %q: %w", args[1], err)
			}
			req := unitconvmsgpack.ConvertRequest{Category: args[0], Value: value}
			if len(args) > 2 {
				req.FromUnit = args[2]
			}
			if len(args) > 3 {
				req.ToUnit = args[3]
			}
			res, err := req.Convert(reg)
			if err != nil {
				return err
			}

			if a.cfg.DB != "" {
				store, err := a.openHistory()
				if err != nil {
					return err
				}
				defer store.Close()
				if _, err := store.Record(cmd.Context(), unitconvhistory.Entry{
					Category: res.Category,
					Value:    res.Value,
					FromUnit: res.FromUnit,
					ToUnit:   res.ToUnit,
					Result:   unitconv.NewDecimalFromFloat(res.Result),
				}); err != nil {
					return err
				}
			}

			out := a.cfg.Format(unitconv.NewDecimalFromFloat(res.Result))
			if raw {
				out = strconv.FormatFloat(res.Result, 'g', -1, 64)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s = %s %s\n",
				strconv.FormatFloat(res.Value, 'g', -1, 64), res.FromUnit, out, res.ToUnit)
			return nil
		},
	}
	// negative values must not be parsed as flags
	cmd.Flags().SetInterspersed(false)
	cmd.Flags().BoolVar(&raw, "raw", false, "print the unrounded result")
	return cmd
}

func (a *app) historyCmd() *cobra.Command {
	var (
		limit    int
		clearAll bool
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded conversions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openHistory()
			if err != nil {
				return err
			}
			defer store.Close()

			if clearAll {
				return store.Clear(cmd.Context())
			}
			entries, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			for _, e := range entries {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s: %s %s = %s %s\n",
					e.CreatedAt.Format("2006-01-02 15:04:05"), e.Category,
					strconv.FormatFloat(e.Value, 'g', -1, 64), e.FromUnit, a.cfg.Format(e.Result), e.ToUnit)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of entries to show (0 for all)")
	cmd.Flags().BoolVar(&clearAll, "clear", false, "delete all entries")
	return cmd
}

func (a *app) serveCmd() *cobra.Command {
	var (
		watch   bool
		listen  string
		network string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the catalog over UDP or TCP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("listen") {
				a.cfg.Listen = listen
			}
			if cmd.Flags().Changed("network") {
				a.cfg.Network = network
				if err := a.cfg.Validate(); err != nil {
					return err
				}
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			reg, err := a.registry()
			if err != nil {
				return err
			}
			logger := log.New(cmd.ErrOrStderr(), "unitconv: ", log.LstdFlags)

			opts := []unitconvrpc.Option{unitconvrpc.WithLogger(logger)}
			if a.cfg.DB != "" {
				store, err := a.openHistory()
				if err != nil {
					return err
				}
				defer store.Close()
				opts = append(opts, unitconvrpc.WithRecorder(store))
			}
			handler := unitconvrpc.NewHandler(reg, opts...)

			if watch && len(a.cfg.Catalogs) > 0 {
				w, err := unitconvwatch.New(unitconv.Default(), a.cfg.Catalogs, handler.SetRegistry, logger)
				if err != nil {
					return err
				}
				defer w.Close()
				go w.Run(ctx)
			}

			srv := unitconvrpc.NewServer(handler)
			logger.Printf("serving %d categories on %s/%s", len(reg.ListCategories()), a.cfg.Network, a.cfg.Listen)
			if a.cfg.Network == "tcp" {
				ln, err := net.Listen("tcp", a.cfg.Listen)
				if err != nil {
					return err
				}
				return srv.Serve(ctx, ln)
			}
			pc, err := net.ListenPacket("udp", a.cfg.Listen)
			if err != nil {
				return err
			}
			return srv.ServePacket(ctx, pc)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", DefaultConfig().Listen, "address to listen on")
	cmd.Flags().StringVar(&network, "network", DefaultConfig().Network, "udp or tcp")
	cmd.Flags().BoolVar(&watch, "watch", false, "reload catalogs when they change")
	return cmd
}

func (a *app) remoteCmd() *cobra.Command {
	var (
		addr    string
		network string
	)
	cmd := &cobra.Command{
		Use:   "remote",
		Short: "Query a running unitconv server",
	}
	cmd.PersistentFlags().StringVar(&addr, "addr", "127.0.0.1:2001", "server address")
	cmd.PersistentFlags().StringVar(&network, "network", "udp", "udp or tcp")

	dial := func(ctx context.Context) (*unitconvrpc.Client, error) {
		return unitconvrpc.Dial(ctx, network, addr)
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "categories",
		Short: "List categories served remotely",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := dial(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()
			cats, err := c.ListCategories(cmd.Context())
			if err != nil {
				return err
			}
			for _, name := range cats {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "units <category>",
		Short: "List the units of a remote category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := dial(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()
			cat, err := c.UnitsFor(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			for _, u := range cat.Units {
				fmt.Fprintln(cmd.OutOrStdout(), u)
			}
			return nil
		},
	})

	convert := &cobra.Command{
		Use:   "convert <category> <value> [from] [to]",
		Short: "Convert a value on the server",
		Args:  cobra.RangeArgs(2, 4),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid value %q: %w", args[1], err)
			}
			req := unitconvmsgpack.ConvertRequest{Category: args[0], Value: value}
			if len(args) > 2 {
				req.FromUnit = args[2]
			}
			if len(args) > 3 {
				req.ToUnit = args[3]
			}
			c, err := dial(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()
			res, err := c.Convert(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s = %s %s\n",
				strconv.FormatFloat(res.Value, 'g', -1, 64), res.FromUnit,
				a.cfg.Format(unitconv.NewDecimalFromFloat(res.Result)), res.ToUnit)
			return nil
		},
	}
	convert.Flags().SetInterspersed(false)
	cmd.AddCommand(convert)
	return cmd
}
