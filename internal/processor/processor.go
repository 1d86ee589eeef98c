package processor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"codeberg.org/snonux/lanote/internal/audio"
	"codeberg.org/snonux/lanote/internal/card"
	"codeberg.org/snonux/lanote/internal/cli"
	"codeberg.org/snonux/lanote/internal/enrich"
	"codeberg.org/snonux/lanote/internal/generator"
	"codeberg.org/snonux/lanote/internal/metrics"
	"codeberg.org/snonux/lanote/internal/notes"
	"codeberg.org/snonux/lanote/internal/store"
	"codeberg.org/snonux/lanote/internal/view"
)

// Options replace the production collaborators. Zero fields get the
// defaults: the configured provider, PortAudio devices, the platform
// player, stdin and stdout.
type Options struct {
	Backend        generator.Backend
	OpenOutput     audio.OutputOpener
	OpenMicrophone audio.MicrophoneOpener
	Player         view.Player
	In             io.Reader
	Out            io.Writer
	Registry       *prometheus.Registry
}

// Processor handles the lanote commands
type Processor struct {
	flags  *cli.Flags
	cfg    Config
	in     io.Reader
	out    io.Writer
	logger *slog.Logger

	registry     *prometheus.Registry
	metrics      *metrics.Metrics
	metricsSrv   *http.Server
	store        *store.Store
	backend      generator.Backend
	orchestrator *enrich.Orchestrator
	parser       notes.Parser
	syncer       *notes.Syncer
	output       *audio.SharedOutput
	openMic      audio.MicrophoneOpener
	player       view.Player
	now          func() time.Time
}

var _ cli.Runner = (*Processor)(nil)

// NewProcessor opens the store and builds the generators for cfg.
func NewProcessor(ctx context.Context, flags *cli.Flags, cfg Config, logger *slog.Logger, opts Options) (*Processor, error) {
	if logger == nil {
		logger = slog.Default()
	}

	p := &Processor{
		flags:    flags,
		cfg:      cfg,
		in:       opts.In,
		out:      opts.Out,
		logger:   logger,
		registry: opts.Registry,
		backend:  opts.Backend,
		player:   opts.Player,
		openMic:  opts.OpenMicrophone,
		now:      time.Now,
	}
	if p.in == nil {
		p.in = os.Stdin
	}
	if p.out == nil {
		p.out = os.Stdout
	}
	if p.registry == nil {
		p.registry = prometheus.NewRegistry()
		p.registry.MustRegister(collectors.NewGoCollector())
	}
	p.metrics = metrics.New(p.registry)

	if p.backend == nil {
		backend, err := newBackend(ctx, cfg)
		if err != nil {
			return nil, err
		}
		p.backend = backend
	}

	st, err := store.Open(ctx, cfg.StorePath, logger)
	if err != nil {
		return nil, err
	}
	p.store = st

	gens := generator.NewFailSafe(p.backend, cfg.Generator, logger, p.metrics)
	p.orchestrator = enrich.New(gens, p.store, logger, p.metrics)
	p.parser = notes.NewParser(p.backend)
	p.syncer = notes.NewSyncer(p.parser, p.store, logger)

	openOutput := opts.OpenOutput
	if openOutput == nil {
		openOutput = audio.OpenPortAudioOutput
	}
	p.output = audio.NewSharedOutput(openOutput, audio.DefaultSampleRate, audio.DefaultChannels)
	if p.openMic == nil {
		p.openMic = audio.OpenPortAudioMicrophone
	}
	if p.player == nil {
		p.player = audio.NewContainerPlayer(p.metrics)
	}

	if cfg.MetricsAddr != "" {
		p.serveMetrics(cfg.MetricsAddr)
	}
	return p, nil
}

func newBackend(ctx context.Context, cfg Config) (generator.Backend, error) {
	switch cfg.Provider {
	case ProviderOpenAI:
		return generator.NewOpenAI(cfg.OpenAI), nil
	default:
		return generator.NewGemini(ctx, cfg.Gemini)
	}
}

func (p *Processor) serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(p.registry))
	p.metricsSrv = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		p.logger.Info("serving metrics", "addr", addr)
		if err := p.metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			p.logger.Error("metrics server failed", "error", err)
		}
	}()
}

// Close releases the audio output, the metrics server and the store.
func (p *Processor) Close() error {
	var errs []error
	errs = append(errs, p.output.Release())
	if p.metricsSrv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		errs = append(errs, p.metricsSrv.Shutdown(ctx))
	}
	errs = append(errs, p.store.Close())
	return errors.Join(errs...)
}

// openView opens a detail view on c requiring fields.
func (p *Processor) openView(c card.VocabCard, fields card.FieldSet) *view.Detail {
	return view.Open(c, view.Deps{
		Orchestrator: p.orchestrator,
		Output:       p.output,
		Microphone:   p.openMic,
		Recording: audio.RecorderConfig{
			SampleRate: p.cfg.Audio.SampleRate,
			Channels:   p.cfg.Audio.Channels,
			Chunk:      p.cfg.Audio.Chunk,
		},
		Player:  p.player,
		Fields:  fields,
		Logger:  p.logger,
		Metrics: p.metrics,
	})
}

// findCard resolves ref as a card id, then as a term of the current language.
func (p *Processor) findCard(ctx context.Context, ref string) (card.VocabCard, error) {
	c, err := p.store.Get(ctx, ref)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return card.VocabCard{}, err
	}

	c, err = p.store.FindByTerm(ctx, p.cfg.Language, ref)
	if errors.Is(err, store.ErrNotFound) {
		return card.VocabCard{}, fmt.Errorf("no %s card %q: %w", p.cfg.Language, ref, err)
	}
	return c, err
}

func storeFilter(lang card.Language, category string) store.ListFilter {
	return store.ListFilter{Language: lang, Category: category}
}
