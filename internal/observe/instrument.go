package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/mockingbird-ai/mockingbird/pkg/provider/llm"
	"github.com/mockingbird-ai/mockingbird/pkg/provider/stt"
	"github.com/mockingbird-ai/mockingbird/pkg/provider/tts"
)

// Provider decorators. Each wraps one pipeline-stage provider so that every
// call lands in the stage's duration histogram and the request/error
// counters. main wraps the assembled failover chains, so the recorded
// duration covers the whole stage including any fallback attempts, and name
// labels the chain by its primary backend.

// InstrumentLLM wraps p so Complete calls are recorded on m.
func InstrumentLLM(p llm.Provider, m *Metrics, name string) llm.Provider {
	return &instrumentedLLM{next: p, metrics: m, name: name}
}

// InstrumentSTT wraps p so Transcribe calls are recorded on m.
func InstrumentSTT(p stt.Provider, m *Metrics, name string) stt.Provider {
	return &instrumentedSTT{next: p, metrics: m, name: name}
}

// InstrumentTTS wraps p so Synthesize calls are recorded on m.
func InstrumentTTS(p tts.Provider, m *Metrics, name string) tts.Provider {
	return &instrumentedTTS{next: p, metrics: m, name: name}
}

type instrumentedLLM struct {
	next    llm.Provider
	metrics *Metrics
	name    string
}

var _ llm.Provider = (*instrumentedLLM)(nil)

func (p *instrumentedLLM) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	start := time.Now()
	resp, err := p.next.Complete(ctx, req)
	p.metrics.recordStage(ctx, p.metrics.LLMDuration, p.name, "llm", time.Since(start), err)
	return resp, err
}

type instrumentedSTT struct {
	next    stt.Provider
	metrics *Metrics
	name    string
}

var _ stt.Provider = (*instrumentedSTT)(nil)

func (p *instrumentedSTT) Transcribe(ctx context.Context, audio []byte, cfg stt.TranscribeConfig) (string, error) {
	start := time.Now()
	text, err := p.next.Transcribe(ctx, audio, cfg)
	p.metrics.recordStage(ctx, p.metrics.STTDuration, p.name, "stt", time.Since(start), err)
	return text, err
}

type instrumentedTTS struct {
	next    tts.Provider
	metrics *Metrics
	name    string
}

var _ tts.Provider = (*instrumentedTTS)(nil)

func (p *instrumentedTTS) Synthesize(ctx context.Context, text string, voice tts.VoiceProfile) ([]byte, error) {
	start := time.Now()
	audio, err := p.next.Synthesize(ctx, text, voice)
	p.metrics.recordStage(ctx, p.metrics.TTSDuration, p.name, "tts", time.Since(start), err)
	return audio, err
}

// recordStage folds one provider call into the stage histogram and the
// request/error counters.
func (m *Metrics) recordStage(ctx context.Context, hist metric.Float64Histogram, provider, kind string, elapsed time.Duration, callErr error) {
	hist.Record(ctx, elapsed.Seconds(),
		metric.WithAttributes(Attr("provider", provider)),
	)
	status := "ok"
	if callErr != nil {
		status = "error"
		m.RecordProviderError(ctx, provider, kind)
	}
	m.RecordProviderRequest(ctx, provider, kind, status)
}
