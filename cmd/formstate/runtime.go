package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-formstate/pkg/form"
	"github.com/goliatone/go-formstate/pkg/metrics"
	"github.com/goliatone/go-formstate/pkg/onboarding"
	"github.com/goliatone/go-formstate/pkg/orchestrator"
	"github.com/goliatone/go-formstate/pkg/remote"
	"github.com/goliatone/go-formstate/pkg/remote/rediscache"
)

const metricsNamespace = "formstate"

// runtime holds the backend wiring of a single command run.
type runtime struct {
	client   *remote.Client
	cache    remote.Cache
	cacheTTL time.Duration
	registry *prometheus.Registry
	hooks    form.Hooks
	logger   *slog.Logger
	closers  []func(context.Context) error
}

// runtime wires the backends; formLabel names the form in metrics.
func (a *app) runtime(ctx context.Context, formLabel string) (*runtime, error) {
	client, err := remote.NewClient(a.cfg.BaseURI,
		remote.WithTimeout(a.cfg.RequestTimeout),
		remote.WithLogger(a.logger),
	)
	if err != nil {
		return nil, err
	}

	rt := &runtime{
		client:   client,
		cacheTTL: a.cfg.CacheTTL,
		registry: prometheus.NewRegistry(),
		logger:   a.logger,
	}

	if addr := strings.TrimSpace(a.cfg.RedisAddr); addr != "" {
		cache := rediscache.New(addr, a.cfg.RedisPassword, a.cfg.RedisDB)
		if err := cache.Ping(ctx); err != nil {
			_ = cache.Close()
			return nil, fmt.Errorf("redis %s: %w", addr, err)
		}
		rt.cache = cache
		rt.closers = append(rt.closers, func(context.Context) error { return cache.Close() })
	} else {
		rt.cache = remote.NewMemoryCache()
	}

	collector := metrics.New(metricsNamespace, metrics.WithFormLabel(formLabel))
	if err := collector.Register(rt.registry); err != nil {
		_ = rt.Close(ctx)
		return nil, err
	}
	rt.hooks = collector.Hooks()

	if addr := strings.TrimSpace(a.cfg.MetricsAddr); addr != "" {
		rt.serveMetrics(addr)
	}
	return rt, nil
}

func (rt *runtime) serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(rt.registry))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			rt.logger.Error("metrics server stopped", slog.String("addr", addr), slog.Any("error", err))
		}
	}()
	rt.logger.Info("serving metrics", slog.String("addr", addr))
	rt.closers = append(rt.closers, srv.Shutdown)
}

// Close releases resources in reverse order of acquisition.
func (rt *runtime) Close(ctx context.Context) error {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	rt.closers = nil
	return errors.Join(errs...)
}

// formFlags selects the form definition and its seed values.
type formFlags struct {
	file      string
	openapi   string
	operation string
	preset    string
	values    map[string]string
}

func addFormFlags(cmd *cobra.Command) {
	cmd.Flags().String("form", "", "Field definition file (JSON or YAML); defaults to the onboarding form")
	cmd.Flags().String("openapi", "", "OpenAPI document path or URL to build the form from")
	cmd.Flags().String("operation", "", "OpenAPI operation, by path or operationId")
	cmd.Flags().String("preset", "", "Preset file with label, message and requirement overrides")
	cmd.Flags().StringToString("set", nil, "Initial field values (name=value)")
}

func readFormFlags(cmd *cobra.Command) (formFlags, error) {
	var ff formFlags
	ff.file, _ = cmd.Flags().GetString("form")
	ff.openapi, _ = cmd.Flags().GetString("openapi")
	ff.operation, _ = cmd.Flags().GetString("operation")
	ff.preset, _ = cmd.Flags().GetString("preset")
	ff.values, _ = cmd.Flags().GetStringToString("set")

	switch {
	case ff.file != "" && ff.openapi != "":
		return formFlags{}, errors.New("--form and --openapi cannot be used together")
	case ff.openapi != "" && ff.operation == "":
		return formFlags{}, errors.New("--openapi requires --operation")
	case ff.openapi == "" && ff.operation != "":
		return formFlags{}, errors.New("--operation requires --openapi")
	}
	return ff, nil
}

// label names the selected form: the onboarding form, the definition file
// name without extension, or the OpenAPI operation.
func (ff formFlags) label() string {
	switch {
	case ff.openapi != "":
		return ff.operation
	case ff.file != "":
		base := filepath.Base(ff.file)
		return strings.TrimSuffix(base, filepath.Ext(base))
	default:
		return onboarding.FormID
	}
}

func (rt *runtime) buildForm(ctx context.Context, ff formFlags) (*form.Form, error) {
	var transformer orchestrator.Transformer
	if ff.preset != "" {
		data, err := os.ReadFile(ff.preset)
		if err != nil {
			return nil, fmt.Errorf("read preset: %w", err)
		}
		preset, err := orchestrator.NewPresetTransformer(data)
		if err != nil {
			return nil, err
		}
		transformer = preset
	}

	if ff.file == "" && ff.openapi == "" {
		return onboarding.New(onboarding.Options{
			Client:        rt.client,
			Cache:         rt.cache,
			CacheTTL:      rt.cacheTTL,
			Logger:        rt.logger,
			Hooks:         rt.hooks,
			Transformer:   transformer,
			InitialValues: ff.values,
		})
	}

	orch := orchestrator.New(
		orchestrator.WithClient(rt.client),
		orchestrator.WithCache(rt.cache, rt.cacheTTL),
		orchestrator.WithLogger(rt.logger),
		orchestrator.WithHooks(rt.hooks),
		orchestrator.WithTransformer(transformer),
	)
	req := orchestrator.Request{Source: ff.file, InitialValues: ff.values}
	if ff.openapi != "" {
		req.Source = ff.openapi
		req.Operation = ff.operation
	}
	return orch.Build(ctx, req)
}
