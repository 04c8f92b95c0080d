// Package report persists finished interview sessions: the candidate's
// transcript, the generated feedback, the behavioural classification, and
// the numeric scores parsed out of the feedback block.
//
// Two stores are provided: a PostgreSQL-backed [PostgresStore] for
// deployments with a database, and an append-only JSON Lines [FileStore]
// for local runs. [FallbackStore] chains them so a database outage never
// loses a report.
package report

import (
	"context"
	"regexp"
	"strconv"
	"time"
)

// Turn is one utterance of the archived transcript.
type Turn struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

// Scores holds the numeric ratings parsed from a feedback block.
// A value of -1 means the rating was absent or unparseable.
type Scores struct {
	Communication  int `json:"communication"`
	RoleKnowledge  int `json:"role_knowledge"`
	ProblemSolving int `json:"problem_solving"`
	Conciseness    int `json:"conciseness"`
}

// Report is one archived interview session.
type Report struct {
	// ID is a UUID assigned on first save.
	ID string `json:"id"`

	// SessionID is the interview session this report belongs to.
	SessionID string `json:"session_id"`

	// Role is the classified role category (e.g. "software").
	Role string `json:"role"`

	// RolePhrase is the human-readable role phrase used in prompts.
	RolePhrase string `json:"role_phrase"`

	// Label is the behavioural classification (e.g. "Efficient User").
	Label string `json:"label"`

	// Reason explains the label.
	Reason string `json:"reason"`

	// Scores are the ratings parsed from Feedback.
	Scores Scores `json:"scores"`

	// Feedback is the full feedback block delivered to the candidate.
	Feedback string `json:"feedback"`

	// Transcript is the ordered conversation history.
	Transcript []Turn `json:"transcript"`

	// CreatedAt is set by the store on save.
	CreatedAt time.Time `json:"created_at"`
}

// Store persists interview reports.
type Store interface {
	Save(ctx context.Context, r *Report) error
}

// Score line patterns of the feedback block.
var scoreRes = map[string]*regexp.Regexp{
	"communication":   regexp.MustCompile(`(?mi)^Communication \(0-10\):\s*(\d+)`),
	"role_knowledge":  regexp.MustCompile(`(?mi)^Role Knowledge \(0-10\):\s*(\d+)`),
	"problem_solving": regexp.MustCompile(`(?mi)^Problem Solving \(0-10\):\s*(\d+)`),
	"conciseness":     regexp.MustCompile(`(?mi)^Conciseness \(0-10\):\s*(\d+)`),
}

// ParseScores extracts the numeric ratings from a feedback block. Missing or
// malformed lines yield -1 for that rating; the feedback text itself is
// model output and not guaranteed to follow the requested format.
func ParseScores(feedback string) Scores {
	return Scores{
		Communication:  parseScore(scoreRes["communication"], feedback),
		RoleKnowledge:  parseScore(scoreRes["role_knowledge"], feedback),
		ProblemSolving: parseScore(scoreRes["problem_solving"], feedback),
		Conciseness:    parseScore(scoreRes["conciseness"], feedback),
	}
}

func parseScore(re *regexp.Regexp, feedback string) int {
	m := re.FindStringSubmatch(feedback)
	if m == nil {
		return -1
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 0 || n > 10 {
		return -1
	}
	return n
}
