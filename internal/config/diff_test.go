package config_test

import (
	"testing"

	"github.com/mockingbird-ai/mockingbird/internal/config"
)

func TestDiff_NoChanges(t *testing.T) {
	old := validConfig()
	new := validConfig()

	d := config.Diff(old, new)
	if d.LogLevelChanged || d.InterviewChanged {
		t.Errorf("Diff of identical configs = %+v, want zero diff", d)
	}
}

func TestDiff_LogLevel(t *testing.T) {
	old := validConfig()
	new := validConfig()
	new.Server.LogLevel = config.LogDebug

	d := config.Diff(old, new)
	if !d.LogLevelChanged {
		t.Fatal("LogLevelChanged = false, want true")
	}
	if d.NewLogLevel != config.LogDebug {
		t.Errorf("NewLogLevel = %q, want debug", d.NewLogLevel)
	}
	if d.InterviewChanged {
		t.Error("InterviewChanged = true for a log-level-only change")
	}
}

func TestDiff_InterviewSettings(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		check  func(config.ConfigDiff) bool
	}{
		{
			"questions",
			func(c *config.Config) { c.Interview.Questions = 5 },
			func(d config.ConfigDiff) bool { return d.QuestionsChanged },
		},
		{
			"language",
			func(c *config.Config) { c.Interview.Language = "de" },
			func(d config.ConfigDiff) bool { return d.LanguageChanged },
		},
		{
			"voice",
			func(c *config.Config) { c.Interview.Voice.VoiceID = "p330" },
			func(d config.ConfigDiff) bool { return d.VoiceChanged },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			old := validConfig()
			new := validConfig()
			tt.mutate(new)

			d := config.Diff(old, new)
			if !tt.check(d) {
				t.Errorf("Diff = %+v, expected %s change flagged", d, tt.name)
			}
			if !d.InterviewChanged {
				t.Error("InterviewChanged = false, want true")
			}
		})
	}
}
