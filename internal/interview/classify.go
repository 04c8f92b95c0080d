package interview

import (
	"regexp"
	"strings"
)

// Label is the behavioural classification derived from the candidate's side
// of the transcript.
type Label string

const (
	LabelEdgeCase  Label = "Edge-case User"
	LabelConfused  Label = "Confused User"
	LabelChatty    Label = "Chatty User"
	LabelEfficient Label = "Efficient User"
	LabelGeneral   Label = "General User"
)

const (
	// edgeSymbolThreshold is the per-utterance count of non-alphanumeric,
	// non-whitespace characters beyond which input is treated as edge-case.
	edgeSymbolThreshold = 5

	// edgeWordMax flags extremely terse utterances ("ok") as edge-case.
	edgeWordMax = 2

	// chattyWordMin is the word count at which a single utterance marks the
	// candidate as chatty.
	chattyWordMin = 40

	// efficientWordMax is the per-utterance ceiling for the efficient label.
	efficientWordMax = 12
)

// uncertaintyPhrases mark a confused candidate when present in any
// user utterance.
var uncertaintyPhrases = []string{
	"i don't know",
	"not sure",
	"no idea",
	"what do you mean",
}

var symbolRe = regexp.MustCompile(`[^a-zA-Z0-9\s]`)

// ClassifyCandidate derives a behavioural label from the user-authored
// utterances in history. Rules are evaluated in fixed priority order —
// edge-case, confused, chatty, efficient — and the first match wins;
// General is the default. Deterministic and pure.
func ClassifyCandidate(history []Turn) Label {
	var userMsgs []string
	for _, turn := range history {
		if turn.Speaker == SpeakerUser {
			userMsgs = append(userMsgs, turn.Text)
		}
	}

	for _, msg := range userMsgs {
		if len(symbolRe.FindAllString(msg, -1)) > edgeSymbolThreshold {
			return LabelEdgeCase
		}
		if len(strings.Fields(msg)) <= edgeWordMax {
			return LabelEdgeCase
		}
	}

	joined := strings.ToLower(strings.Join(userMsgs, " "))
	for _, phrase := range uncertaintyPhrases {
		if strings.Contains(joined, phrase) {
			return LabelConfused
		}
	}
	if len(userMsgs) <= 1 {
		return LabelConfused
	}

	for _, msg := range userMsgs {
		if len(strings.Fields(msg)) >= chattyWordMin {
			return LabelChatty
		}
	}

	efficient := true
	for _, msg := range userMsgs {
		if len(strings.Fields(msg)) > efficientWordMax {
			efficient = false
			break
		}
	}
	if efficient {
		return LabelEfficient
	}

	return LabelGeneral
}

// labelReasons justify each label in one line, appended verbatim to the
// feedback block.
var labelReasons = map[Label]string{
	LabelEdgeCase:  "Provided input that was irrelevant, invalid, or contained unexpected characters.",
	LabelConfused:  "Showed uncertainty or difficulty understanding what they wanted to practice.",
	LabelChatty:    "Gave long, detailed, sometimes off-topic explanations.",
	LabelEfficient: "Gave short, direct answers and moved quickly through the interview.",
	LabelGeneral:   "Answered normally without any strong behavioral pattern.",
}

// LabelReason returns the one-line justification for a label.
func LabelReason(label Label) string {
	if r, ok := labelReasons[label]; ok {
		return r
	}
	return labelReasons[LabelGeneral]
}
