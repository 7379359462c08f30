package models

import "strings"

// Question represents one incoming legal question. It is created per request
// and never mutated afterwards.
type Question struct {
	Text    string          `json:"question"`
	Context QuestionContext `json:"context"`
}

// QuestionContext carries optional caller-supplied hints
type QuestionContext struct {
	JurisdictionHint string `json:"jurisdiction_hint,omitempty"`
	ConversationID   string `json:"conversation_id,omitempty"`
}

// NewQuestion trims the text and attaches the optional context
func NewQuestion(text string, ctx QuestionContext) Question {
	return Question{
		Text:    strings.TrimSpace(text),
		Context: ctx,
	}
}
