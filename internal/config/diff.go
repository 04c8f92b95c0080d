package config

// ConfigDiff describes what changed between two configs.
// Only fields that can be safely hot-reloaded are tracked; provider and
// report changes require a restart.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	// InterviewChanged is true when any hot-reloadable interview setting
	// changed. New sessions pick up the new values; running sessions keep
	// the plan they started with.
	InterviewChanged bool
	QuestionsChanged bool
	LanguageChanged  bool
	VoiceChanged     bool
}

// Diff compares old and new configs and returns what changed.
// Only tracks changes that are safe to apply without restart.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}

	if old.Interview.Questions != new.Interview.Questions {
		d.QuestionsChanged = true
	}
	if old.Interview.Language != new.Interview.Language {
		d.LanguageChanged = true
	}
	if old.Interview.Voice != new.Interview.Voice {
		d.VoiceChanged = true
	}
	d.InterviewChanged = d.QuestionsChanged || d.LanguageChanged || d.VoiceChanged

	return d
}
