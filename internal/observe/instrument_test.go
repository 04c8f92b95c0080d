package observe

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/mockingbird-ai/mockingbird/pkg/provider/llm"
	llmmock "github.com/mockingbird-ai/mockingbird/pkg/provider/llm/mock"
	"github.com/mockingbird-ai/mockingbird/pkg/provider/stt"
	sttmock "github.com/mockingbird-ai/mockingbird/pkg/provider/stt/mock"
	"github.com/mockingbird-ai/mockingbird/pkg/provider/tts"
	ttsmock "github.com/mockingbird-ai/mockingbird/pkg/provider/tts/mock"
)

// histogramCount sums the sample counts of all data points of a histogram.
func histogramCount(t *testing.T, rm metricdata.ResourceMetrics, name string) uint64 {
	t.Helper()
	met := findMetric(rm, name)
	if met == nil {
		return 0
	}
	hist, ok := met.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatalf("%s data type = %T, want histogram", name, met.Data)
	}
	var n uint64
	for _, dp := range hist.DataPoints {
		n += dp.Count
	}
	return n
}

// counterValue sums data points of an int64 counter whose attributes contain
// want as a subset.
func counterValue(t *testing.T, rm metricdata.ResourceMetrics, name string, want map[string]string) int64 {
	t.Helper()
	met := findMetric(rm, name)
	if met == nil {
		return 0
	}
	sum, ok := met.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("%s data type = %T, want sum", name, met.Data)
	}
	var total int64
	for _, dp := range sum.DataPoints {
		attrs := map[string]string{}
		for _, kv := range dp.Attributes.ToSlice() {
			attrs[string(kv.Key)] = kv.Value.AsString()
		}
		match := true
		for k, v := range want {
			if attrs[k] != v {
				match = false
			}
		}
		if match {
			total += dp.Value
		}
	}
	return total
}

func TestInstrumentLLM_RecordsDurationAndRequest(t *testing.T) {
	m, reader := newTestMetrics(t)
	p := InstrumentLLM(&llmmock.Provider{Responses: []string{"What is a mutex?"}}, m, "openai")

	resp, err := p.Complete(context.Background(), llm.CompletionRequest{
		Messages: []llm.Message{{Role: "user", Content: "ask me something"}},
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Content != "What is a mutex?" {
		t.Errorf("Content = %q", resp.Content)
	}

	rm := collect(t, reader)
	if n := histogramCount(t, rm, "mockingbird.llm.duration"); n != 1 {
		t.Errorf("llm duration samples = %d, want 1", n)
	}
	got := counterValue(t, rm, "mockingbird.provider.requests",
		map[string]string{"provider": "openai", "kind": "llm", "status": "ok"})
	if got != 1 {
		t.Errorf("ok requests = %d, want 1", got)
	}
	if errs := counterValue(t, rm, "mockingbird.provider.errors", nil); errs != 0 {
		t.Errorf("errors = %d, want 0", errs)
	}
}

func TestInstrumentLLM_RecordsError(t *testing.T) {
	m, reader := newTestMetrics(t)
	p := InstrumentLLM(&llmmock.Provider{Err: errors.New("backend down")}, m, "openai")

	if _, err := p.Complete(context.Background(), llm.CompletionRequest{}); err == nil {
		t.Fatal("Complete expected error, got nil")
	}

	rm := collect(t, reader)
	got := counterValue(t, rm, "mockingbird.provider.requests",
		map[string]string{"provider": "openai", "kind": "llm", "status": "error"})
	if got != 1 {
		t.Errorf("error-status requests = %d, want 1", got)
	}
	errs := counterValue(t, rm, "mockingbird.provider.errors",
		map[string]string{"provider": "openai", "kind": "llm"})
	if errs != 1 {
		t.Errorf("errors = %d, want 1", errs)
	}
	if n := histogramCount(t, rm, "mockingbird.llm.duration"); n != 1 {
		t.Errorf("failed calls must still record duration, samples = %d", n)
	}
}

func TestInstrumentSTT_RecordsTranscription(t *testing.T) {
	m, reader := newTestMetrics(t)
	p := InstrumentSTT(&sttmock.Provider{Text: "I want retail"}, m, "whisper")

	text, err := p.Transcribe(context.Background(), []byte{1, 2, 3}, stt.TranscribeConfig{SampleRate: 16000})
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if text != "I want retail" {
		t.Errorf("text = %q", text)
	}

	rm := collect(t, reader)
	if n := histogramCount(t, rm, "mockingbird.stt.duration"); n != 1 {
		t.Errorf("stt duration samples = %d, want 1", n)
	}
	got := counterValue(t, rm, "mockingbird.provider.requests",
		map[string]string{"provider": "whisper", "kind": "stt", "status": "ok"})
	if got != 1 {
		t.Errorf("ok requests = %d, want 1", got)
	}
}

func TestInstrumentTTS_RecordsSynthesis(t *testing.T) {
	m, reader := newTestMetrics(t)
	p := InstrumentTTS(&ttsmock.Provider{Audio: []byte{7, 7}}, m, "coqui")

	audio, err := p.Synthesize(context.Background(), "Tell me about queues.", tts.VoiceProfile{ID: "p225"})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if len(audio) != 2 {
		t.Errorf("audio length = %d, want 2", len(audio))
	}

	rm := collect(t, reader)
	if n := histogramCount(t, rm, "mockingbird.tts.duration"); n != 1 {
		t.Errorf("tts duration samples = %d, want 1", n)
	}
	got := counterValue(t, rm, "mockingbird.provider.requests",
		map[string]string{"provider": "coqui", "kind": "tts", "status": "ok"})
	if got != 1 {
		t.Errorf("ok requests = %d, want 1", got)
	}
}
