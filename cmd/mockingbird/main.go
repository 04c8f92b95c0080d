// Command mockingbird is the mock-interview dialogue server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	anyllmlib "github.com/mozilla-ai/any-llm-go"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mockingbird-ai/mockingbird/internal/app"
	"github.com/mockingbird-ai/mockingbird/internal/config"
	"github.com/mockingbird-ai/mockingbird/internal/health"
	"github.com/mockingbird-ai/mockingbird/internal/httpapi"
	"github.com/mockingbird-ai/mockingbird/internal/interview"
	"github.com/mockingbird-ai/mockingbird/internal/observe"
	"github.com/mockingbird-ai/mockingbird/internal/report"
	"github.com/mockingbird-ai/mockingbird/internal/resilience"
	"github.com/mockingbird-ai/mockingbird/internal/transcript"
	"github.com/mockingbird-ai/mockingbird/pkg/provider/llm"
	"github.com/mockingbird-ai/mockingbird/pkg/provider/llm/anyllm"
	oaillm "github.com/mockingbird-ai/mockingbird/pkg/provider/llm/openai"
	"github.com/mockingbird-ai/mockingbird/pkg/provider/stt"
	"github.com/mockingbird-ai/mockingbird/pkg/provider/stt/whisper"
	"github.com/mockingbird-ai/mockingbird/pkg/provider/tts"
	"github.com/mockingbird-ai/mockingbird/pkg/provider/tts/coqui"
)

// version is overridden at build time via -ldflags.
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	watch := flag.Bool("watch", false, "reload supported settings when the config file changes")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "mockingbird: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "mockingbird: %v\n", err)
		}
		return 1
	}

	// A LevelVar so a config reload can change verbosity in place.
	level := new(slog.LevelVar)
	level.Set(slogLevel(cfg.Server.LogLevel))
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	slog.Info("mockingbird starting",
		"version", version,
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ─────────────────────────────────────────────────────────────
	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName:    "mockingbird",
		ServiceVersion: version,
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	metrics := observe.DefaultMetrics()

	// ── Providers ─────────────────────────────────────────────────────────────
	reg := config.NewRegistry()
	registerBuiltinProviders(reg)

	llmChain, err := buildLLMChain(cfg, reg)
	if err != nil {
		slog.Error("failed to build llm chain", "err", err)
		return 1
	}
	llmChain = observe.InstrumentLLM(llmChain, metrics, cfg.Providers.LLM.Name)

	sttChain, err := buildSTTChain(cfg, reg)
	if err != nil {
		slog.Error("failed to build stt chain", "err", err)
		return 1
	}
	if sttChain != nil {
		sttChain = observe.InstrumentSTT(sttChain, metrics, cfg.Providers.STT.Name)
	}

	ttsProvider, err := buildTTS(cfg, reg)
	if err != nil {
		slog.Error("failed to build tts provider", "err", err)
		return 1
	}
	if ttsProvider != nil {
		ttsProvider = observe.InstrumentTTS(ttsProvider, metrics, cfg.Providers.TTS.Name)
	}

	// ── Report store ──────────────────────────────────────────────────────────
	var closers []func() error
	reports, reportChecks, reportClosers, err := buildReportStore(ctx, cfg)
	if err != nil {
		slog.Error("failed to set up report store", "err", err)
		return 1
	}
	closers = append(closers, reportClosers...)

	// ── Dialogue machine ──────────────────────────────────────────────────────
	machineOpts := []interview.MachineOption{
		interview.WithLogger(logger),
		interview.WithRoleCorrector(transcript.New()),
	}
	if cfg.Interview.Questions > 0 {
		machineOpts = append(machineOpts, interview.WithQuestionCount(cfg.Interview.Questions))
	}
	if ttsProvider != nil {
		machineOpts = append(machineOpts, interview.WithTTS(ttsProvider, tts.VoiceProfile{
			ID:       cfg.Interview.Voice.VoiceID,
			Provider: cfg.Interview.Voice.Provider,
		}))
	}
	machine, err := interview.NewMachine(llmChain, machineOpts...)
	if err != nil {
		slog.Error("failed to build dialogue machine", "err", err)
		return 1
	}

	sessions, err := app.NewSessionManager(app.SessionManagerConfig{
		Machine: machine,
		Reports: reports,
		Metrics: metrics,
		Logger:  logger,
	})
	if err != nil {
		slog.Error("failed to build session manager", "err", err)
		return 1
	}

	// ── HTTP surface ──────────────────────────────────────────────────────────
	apiOpts := []httpapi.ServerOption{httpapi.WithServerLogger(logger)}
	if sttChain != nil {
		apiOpts = append(apiOpts, httpapi.WithSTT(sttChain, stt.TranscribeConfig{
			SampleRate: 16000,
			Channels:   1,
			Language:   cfg.Interview.Language,
		}))
	}
	api, err := httpapi.NewServer(sessions, apiOpts...)
	if err != nil {
		slog.Error("failed to build http api", "err", err)
		return 1
	}

	mux := http.NewServeMux()
	api.Register(mux)
	health.New(reportChecks...).Register(mux)
	mux.Handle("GET /metrics", promhttp.Handler())
	handler := observe.Middleware(metrics)(mux)

	// ── Config watcher (optional) ─────────────────────────────────────────────
	if *watch {
		watcher, err := config.NewWatcher(*configPath, func(old, updated *config.Config) {
			diff := config.Diff(old, updated)
			if diff.LogLevelChanged {
				level.Set(slogLevel(diff.NewLogLevel))
				slog.Info("log level changed", "level", diff.NewLogLevel)
			}
			if diff.InterviewChanged {
				slog.Warn("interview settings changed on disk; restart to apply",
					"questions_changed", diff.QuestionsChanged,
					"language_changed", diff.LanguageChanged,
					"voice_changed", diff.VoiceChanged)
			}
		})
		if err != nil {
			slog.Error("failed to start config watcher", "err", err)
			return 1
		}
		closers = append(closers, func() error { watcher.Stop(); return nil })
	}

	closers = append(closers, func() error {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return otelShutdown(shutdownCtx)
	})

	// ── Run ───────────────────────────────────────────────────────────────────
	appOpts := []app.Option{app.WithLogger(logger)}
	for _, c := range closers {
		appOpts = append(appOpts, app.WithCloser(c))
	}
	application, err := app.New(cfg, handler, sessions, appOpts...)
	if err != nil {
		slog.Error("failed to initialise application", "err", err)
		return 1
	}

	slog.Info("server ready — press Ctrl+C to shut down")
	if err := application.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// ── Provider wiring ───────────────────────────────────────────────────────────

// registerBuiltinProviders wires all built-in provider factories into reg.
func registerBuiltinProviders(reg *config.Registry) {
	// ── LLM ───────────────────────────────────────────────────────────────────
	// openai goes through the official SDK; the rest share the any-llm
	// pattern: optional APIKey + optional BaseURL.
	reg.RegisterLLM("openai", func(entry config.ProviderEntry) (llm.Provider, error) {
		var opts []oaillm.Option
		if entry.BaseURL != "" {
			opts = append(opts, oaillm.WithBaseURL(entry.BaseURL))
		}
		return oaillm.New(entry.APIKey, entry.Model, opts...)
	})

	for _, providerName := range []string{
		"anthropic", "gemini", "deepseek", "mistral", "groq", "llamacpp", "llamafile",
	} {
		reg.RegisterLLM(providerName, func(entry config.ProviderEntry) (llm.Provider, error) {
			var opts []anyllmlib.Option
			if entry.APIKey != "" {
				opts = append(opts, anyllmlib.WithAPIKey(entry.APIKey))
			}
			if entry.BaseURL != "" {
				opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
			}
			return anyllm.New(providerName, entry.Model, opts...)
		})
	}

	// ollama is a local server; it uses BaseURL for the address, not an API key.
	reg.RegisterLLM("ollama", func(entry config.ProviderEntry) (llm.Provider, error) {
		var opts []anyllmlib.Option
		if entry.BaseURL != "" {
			opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
		}
		return anyllm.New("ollama", entry.Model, opts...)
	})

	// ── STT ───────────────────────────────────────────────────────────────────

	reg.RegisterSTT("whisper", func(entry config.ProviderEntry) (stt.Provider, error) {
		var opts []whisper.Option
		if entry.Model != "" {
			opts = append(opts, whisper.WithModel(entry.Model))
		}
		if lang := optString(entry.Options, "language"); lang != "" {
			opts = append(opts, whisper.WithLanguage(lang))
		}
		return whisper.New(entry.BaseURL, opts...)
	})

	reg.RegisterSTT("whisper-native", func(entry config.ProviderEntry) (stt.Provider, error) {
		modelPath := entry.Model
		if modelPath == "" {
			modelPath = optString(entry.Options, "model_path")
		}
		var opts []whisper.NativeOption
		if lang := optString(entry.Options, "language"); lang != "" {
			opts = append(opts, whisper.WithNativeLanguage(lang))
		}
		return whisper.NewNative(modelPath, opts...)
	})

	// ── TTS ───────────────────────────────────────────────────────────────────

	reg.RegisterTTS("coqui", func(entry config.ProviderEntry) (tts.Provider, error) {
		var opts []coqui.Option
		if lang := optString(entry.Options, "language"); lang != "" {
			opts = append(opts, coqui.WithLanguage(lang))
		}
		if mode := optString(entry.Options, "api_mode"); mode != "" {
			opts = append(opts, coqui.WithAPIMode(coqui.APIMode(mode)))
		}
		return coqui.New(entry.BaseURL, opts...)
	})
}

// buildLLMChain creates the primary LLM provider plus its configured
// fallbacks, wrapped in a circuit-breaking fallback chain.
func buildLLMChain(cfg *config.Config, reg *config.Registry) (llm.Provider, error) {
	primary, fallbacks, err := reg.CreateLLMChain(cfg.Providers)
	if err != nil {
		return nil, err
	}

	chain := resilience.NewLLMFallback(primary, cfg.Providers.LLM.Name, resilience.FallbackConfig{})
	for i, fb := range fallbacks {
		name := cfg.Providers.LLMFallbacks[i].Name
		chain.AddFallback(name, fb)
		slog.Info("llm fallback registered", "name", name)
	}
	slog.Info("provider created", "kind", "llm", "name", cfg.Providers.LLM.Name, "model", cfg.Providers.LLM.Model)
	return chain, nil
}

// buildSTTChain creates the STT provider chain, or nil when speech
// recognition is not configured (text-only deployments).
func buildSTTChain(cfg *config.Config, reg *config.Registry) (stt.Provider, error) {
	if cfg.Providers.STT.Name == "" {
		slog.Warn("no stt provider configured — audio endpoints disabled")
		return nil, nil
	}

	primary, fallbacks, err := reg.CreateSTTChain(cfg.Providers)
	if err != nil {
		return nil, err
	}

	chain := resilience.NewSTTFallback(primary, cfg.Providers.STT.Name, resilience.FallbackConfig{})
	for i, fb := range fallbacks {
		name := cfg.Providers.STTFallbacks[i].Name
		chain.AddFallback(name, fb)
		slog.Info("stt fallback registered", "name", name)
	}
	slog.Info("provider created", "kind", "stt", "name", cfg.Providers.STT.Name)
	return chain, nil
}

// buildTTS creates the TTS provider, or nil for text-only replies.
func buildTTS(cfg *config.Config, reg *config.Registry) (tts.Provider, error) {
	if cfg.Providers.TTS.Name == "" {
		slog.Warn("no tts provider configured — replies carry text only")
		return nil, nil
	}
	p, err := reg.CreateTTS(cfg.Providers.TTS)
	if err != nil {
		return nil, err
	}
	slog.Info("provider created", "kind", "tts", "name", cfg.Providers.TTS.Name)
	return p, nil
}

// buildReportStore assembles the report persistence chain: PostgreSQL when a
// DSN is configured, a JSONL file as the standalone or fallback sink. It
// returns the store (nil when persistence is disabled), readiness checks,
// and closers for shutdown.
func buildReportStore(ctx context.Context, cfg *config.Config) (report.Store, []health.Check, []func() error, error) {
	var (
		pgStore   *report.PostgresStore
		fileStore *report.FileStore
		checks    []health.Check
		closers   []func() error
	)

	if dsn := cfg.Report.PostgresDSN; dsn != "" {
		pool, err := pgxpool.New(ctx, dsn)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connect report database: %w", err)
		}
		closers = append(closers, func() error { pool.Close(); return nil })

		pgStore = report.NewPostgresStore(pool)
		if err := pgStore.Migrate(ctx); err != nil {
			return nil, nil, nil, err
		}
		checks = append(checks, health.Check{Name: "reports", Probe: pgStore.Ping})
		slog.Info("report store ready", "kind", "postgres")
	}

	if path := cfg.Report.JSONLPath; path != "" {
		fileStore = report.NewFileStore(path)
		slog.Info("report store ready", "kind", "jsonl", "path", path)
	}

	switch {
	case pgStore != nil && fileStore != nil:
		return report.NewFallbackStore(pgStore, fileStore), checks, closers, nil
	case pgStore != nil:
		return pgStore, checks, closers, nil
	case fileStore != nil:
		return fileStore, checks, closers, nil
	default:
		slog.Warn("no report sink configured — completed interviews are not persisted")
		return nil, checks, closers, nil
	}
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func slogLevel(level config.LogLevel) slog.Level {
	switch level {
	case config.LogDebug:
		return slog.LevelDebug
	case config.LogWarn:
		return slog.LevelWarn
	case config.LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// optString extracts a string value from a provider Options map[string]any.
// Returns "" if the map is nil, the key is absent, or the value is not a string.
func optString(opts map[string]any, key string) string {
	if opts == nil {
		return ""
	}
	v, ok := opts[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}
