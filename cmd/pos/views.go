package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"builders-pos/internal/dashboard"
	"builders-pos/internal/logger"
	"builders-pos/internal/middleware"
	"builders-pos/internal/mirror"
	"builders-pos/internal/order"
	"builders-pos/internal/product"
	"builders-pos/internal/seed"
	"builders-pos/internal/sync"
	"builders-pos/internal/user"
	"builders-pos/internal/utils"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// viewFlags are the section parameters shared by report and watch.
type viewFlags struct {
	report    string
	day       string
	filter    string
	search    string
	period    string
	auditType string
	from      string
	to        string
}

func (f *viewFlags) bind(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.report, "report", "", "report kind: daily, weekly, monthly, inventory, products")
	fs.StringVar(&f.day, "day", "", "report day (YYYY-MM-DD), default today")
	fs.StringVar(&f.filter, "filter", "", "inventory filter: all, low, out")
	fs.StringVar(&f.search, "search", "", "product search term")
	fs.StringVar(&f.period, "period", "", "sales history period: today, week, all")
	fs.StringVar(&f.auditType, "type", "", "audit trail activity type filter")
	fs.StringVar(&f.from, "from", "", "audit trail start day (YYYY-MM-DD)")
	fs.StringVar(&f.to, "to", "", "audit trail end day (YYYY-MM-DD)")
}

func (f *viewFlags) params(loc *time.Location) (dashboard.Params, error) {
	p := dashboard.Params{
		Report:    dashboard.ReportKind(f.report),
		Filter:    product.Filter(f.filter),
		Search:    f.search,
		Period:    order.Period(f.period),
		AuditType: f.auditType,
	}

	var err error
	if f.day != "" {
		if p.Day, err = utils.ParseDay(f.day, loc); err != nil {
			return p, fmt.Errorf("--day: %w", err)
		}
	}
	if p.From, err = parseDay(f.from, loc); err != nil {
		return p, fmt.Errorf("--from: %w", err)
	}
	if p.To, err = parseDay(f.to, loc); err != nil {
		return p, fmt.Errorf("--to: %w", err)
	}
	return p, nil
}

func parseDay(v string, loc *time.Location) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	t, err := utils.ParseDay(v, loc)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// openDashboard logs in and primes a mirror with the role's watched keys.
func (c *cli) openDashboard(ctx context.Context, render dashboard.RenderFunc) (context.Context, *dashboard.Dashboard, *sync.Mirror, sync.Profile, error) {
	a := c.app
	ctx, id, err := a.login(ctx, c.username, c.password)
	if err != nil {
		return nil, nil, nil, sync.Profile{}, fmt.Errorf("login %q: %w", c.username, err)
	}

	profile, err := sync.ProfileFor(id.Role, a.cfg.Poll)
	if err != nil {
		return nil, nil, nil, sync.Profile{}, err
	}

	m := sync.NewMirror(a.store)
	if err := m.Refresh(ctx, profile.Keys); err != nil {
		return nil, nil, nil, sync.Profile{}, err
	}

	opts := []dashboard.Option{
		dashboard.WithFeedback(a.feedback),
		dashboard.WithDemoAudit(a.cfg.DemoAudit),
		dashboard.WithClock(a.now),
		dashboard.WithLocation(a.loc),
	}
	if render != nil {
		opts = append(opts, dashboard.WithRender(render))
	}

	ctx = logger.WithDashboard(ctx, string(id.Role))
	return ctx, dashboard.New(id, m, opts...), m, profile, nil
}

func seedCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the starting catalog and demo accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := logger.WithSessionID(cmd.Context(), "")
			a := c.app

			catalog, err := seed.Default()
			if err != nil {
				return err
			}
			res, err := seed.Seed(ctx, a.store, catalog, a.now())
			if err != nil {
				return err
			}

			if a.mirror != nil {
				products, err := a.products.List(ctx)
				if err != nil {
					return err
				}
				if err := a.mirror.SyncProducts(ctx, products); err != nil {
					return err
				}
				a.audit(ctx, mirror.AuditEntry{
					Action:     "SEED",
					EntityType: "catalog",
					NewValue:   fmt.Sprintf("products=%d users=%d", res.Products, res.Users),
				})
			}
			return writeJSON(cmd.OutOrStdout(), res)
		},
	}
}

func reportCmd(c *cli) *cobra.Command {
	var flags viewFlags

	cmd := &cobra.Command{
		Use:   "report <section>",
		Short: "Print one dashboard section as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := flags.params(c.app.loc)
			if err != nil {
				return err
			}
			ctx, dash, _, _, err := c.openDashboard(cmd.Context(), nil)
			if err != nil {
				return err
			}
			view, err := dash.Show(ctx, dashboard.Section(args[0]), params)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), view)
		},
	}
	flags.bind(cmd)
	return cmd
}

func watchCmd(c *cli) *cobra.Command {
	var (
		flags       viewFlags
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "watch <section>",
		Short: "Keep a dashboard section live, printing it after every refresh",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := c.app
			params, err := flags.params(a.loc)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			render := func(section dashboard.Section, view any) {
				fmt.Fprintf(out, "# %s @ %s\n", section, a.now().Format(time.TimeOnly))
				_ = writeJSON(out, view)
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			ctx, dash, m, profile, err := c.openDashboard(ctx, render)
			if err != nil {
				return err
			}
			if _, err := dash.Show(ctx, dashboard.Section(args[0]), params); err != nil {
				return err
			}

			if metricsAddr != "" {
				srv := &http.Server{
					Addr:              metricsAddr,
					Handler:           metricsHandler(a),
					ReadHeaderTimeout: 5 * time.Second,
				}
				go func() {
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						logger.FromCtx(ctx).Error("metrics endpoint stopped", zap.Error(err))
					}
				}()
				defer srv.Close()
			}

			poller := sync.NewPoller(a.store, m, profile,
				sync.WithMetrics(a.metrics),
				sync.WithOnRefresh(dash.OnRefresh),
			)
			return poller.Run(ctx)
		},
	}
	flags.bind(cmd)
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address, e.g. :9102")
	return cmd
}

// metricsHandler serves the app's registry behind request logging and a
// per-client rate limit.
func metricsHandler(a *app) http.Handler {
	limiter := middleware.NewLimiter(middleware.DefaultLimit, middleware.DefaultBurst)
	return middleware.Logging(limiter.Handler(promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})))
}

func mirrorCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "mirror",
		Short: "Copy the catalog to the relational mirror and list its low-stock rows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := c.app
			if a.mirror == nil {
				return errors.New("relational mirror is not configured (set DB_URL or DB_HOST)")
			}
			ctx, err := c.session(cmd.Context())
			if err != nil {
				return err
			}
			if _, err := user.RequireRole(ctx, user.RoleManager, user.RoleAdmin); err != nil {
				return err
			}

			products, err := a.products.List(ctx)
			if err != nil {
				return err
			}
			if err := a.mirror.SyncProducts(ctx, products); err != nil {
				return err
			}
			rows, err := a.mirror.LowStock(ctx)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), rows)
		},
	}
}
