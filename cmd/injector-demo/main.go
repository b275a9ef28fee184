// Command injector-demo shows how the three lifestyles share instances under
// the bundled debug and release profiles.
//
//	injector-demo                    # run every profile once
//	injector-demo -profile release   # run one profile
//	injector-demo -addr :8080        # serve /demo, /services and /metrics
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/xraph/injector"
	"github.com/xraph/injector/injecthttp"
	"github.com/xraph/injector/internal/demo"
)

func main() {
	// Non-fatal: .env is optional
	_ = godotenv.Load()

	profileName := flag.String("profile", os.Getenv("INJECTOR_PROFILE"), "profile to run (debug, release); empty runs all")
	addr := flag.String("addr", os.Getenv("INJECTOR_ADDR"), "serve the demo over HTTP on this address")
	verbose := flag.Bool("verbose", false, "log container events")
	flag.Parse()

	logger := zap.NewNop()
	if *verbose {
		var err error

		logger, err = zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "create logger: %v\n", err)
			os.Exit(1)
		}
	}
	defer func() { _ = logger.Sync() }()

	if *addr != "" {
		name := *profileName
		if name == "" {
			name = demo.ProfileNames[0]
		}

		if err := serve(*addr, name, logger); err != nil {
			logger.Fatal("server failed", zap.Error(err))
		}

		return
	}

	names := demo.ProfileNames
	if *profileName != "" {
		names = []string{*profileName}
	}

	for i, name := range names {
		if i > 0 {
			fmt.Println()
		}

		fmt.Printf("== %s ==\n", name)

		if err := runOnce(name, logger); err != nil {
			fmt.Fprintf(os.Stderr, "profile %s: %v\n", name, err)
			os.Exit(1)
		}
	}
}

func runOnce(name string, logger *zap.Logger) error {
	c, err := demo.NewContainer(name,
		injector.WithLogger(logger),
		injector.WithMiddleware(injector.NewLoggingMiddleware(logger)),
	)
	if err != nil {
		return err
	}

	ctx := context.Background()
	defer func() { _ = c.Close(ctx) }()

	report, err := demo.Run(ctx, c)
	if err != nil {
		return err
	}

	report.Print(os.Stdout)

	return nil
}

func serve(addr, name string, logger *zap.Logger) error {
	registry := prometheus.NewRegistry()

	c, err := demo.NewContainer(name,
		injector.WithLogger(logger),
		injector.WithMiddleware(
			injector.NewLoggingMiddleware(logger),
			injector.NewMetricsMiddleware(registry),
		),
	)
	if err != nil {
		return err
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	r.Get("/services", servicesHandler(c))

	r.Group(func(r chi.Router) {
		r.Use(injecthttp.Middleware(c, injecthttp.WithLogger(logger)))
		r.Get("/demo", demoHandler(c))
	})

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)

	go func() {
		logger.Info("serving demo", zap.String("addr", addr), zap.String("profile", name))

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}

		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return errors.Join(srv.Shutdown(shutdownCtx), c.Close(shutdownCtx))
}

// demoHandler runs the walkthrough with the request scope as the outer
// scope and reports which instances were shared.
func demoHandler(c *injector.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := demo.Run(r.Context(), c)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)

			return
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		if scope := injecthttp.FromRequest(r); scope != nil {
			reqID, _ := scope.Metadata(injecthttp.MetadataRequestID)
			fmt.Fprintf(w, "scope %s (request %s)\n", scope.ID(), reqID)
		}

		report.Print(w)
	}
}

type serviceView struct {
	ID           injector.ServiceID   `json:"id"`
	Lifestyle    string               `json:"lifestyle"`
	Factory      string               `json:"factory"`
	Dependencies []injector.ServiceID `json:"dependencies,omitempty"`
	Built        bool                 `json:"built"`
}

func servicesHandler(c *injector.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		infos := injector.Query(c, injector.ServiceQuery{})

		views := make([]serviceView, 0, len(infos))
		for _, info := range infos {
			views = append(views, serviceView{
				ID:           info.ID,
				Lifestyle:    info.Lifestyle.String(),
				Factory:      info.Factory,
				Dependencies: info.Dependencies,
				Built:        info.Built,
			})
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(views)
	}
}
