package card

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Language is the language a card's term is written in.
type Language string

const (
	Korean   Language = "Korean"
	Japanese Language = "Japanese"
)

// ParseLanguage accepts a language name case-insensitively.
func ParseLanguage(s string) (Language, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "korean", "ko":
		return Korean, nil
	case "japanese", "ja":
		return Japanese, nil
	default:
		return "", fmt.Errorf("unsupported language: %q (use Korean or Japanese)", s)
	}
}

// ErrorsCategory is the bucket the study flow moves missed cards into.
const ErrorsCategory = "Errors"

// StudyStatus is the learning stage of a card.
type StudyStatus string

const (
	StatusNew      StudyStatus = "new"
	StatusLearning StudyStatus = "learning"
	StatusReview   StudyStatus = "review"
	StatusMastered StudyStatus = "mastered"
)

// StudyState tracks review progress.
type StudyState struct {
	Status       StudyStatus `json:"status"`
	ReviewCount  int         `json:"reviewCount"`
	LastReviewed time.Time   `json:"lastReviewed,omitzero"`
}

// VocabCard is a single flashcard.
type VocabCard struct {
	ID         string     `json:"id"`
	Term       string     `json:"term"`
	Definition string     `json:"definition"`
	Language   Language   `json:"language"`
	Category   string     `json:"category"`
	CreatedAt  time.Time  `json:"dateAdded"`
	Study      StudyState `json:"studyState"`
	Details    Details    `json:"details"`
}

// New creates a card with a fresh id and empty details.
func New(term, definition, category string, lang Language) VocabCard {
	return VocabCard{
		ID:         uuid.NewString(),
		Term:       strings.TrimSpace(term),
		Definition: strings.TrimSpace(definition),
		Language:   lang,
		Category:   strings.TrimSpace(category),
		CreatedAt:  time.Now().UTC(),
		Study:      StudyState{Status: StatusNew},
	}
}

// Image is a generated illustration.
type Image struct {
	Data     []byte `json:"data"`
	MIMEType string `json:"mimeType,omitempty"`
}

// DefaultImageMIMEType is assumed when an image carries no encoding tag.
const DefaultImageMIMEType = "image/png"

// ContentType returns the MIME type, falling back to DefaultImageMIMEType.
func (i Image) ContentType() string {
	if i.MIMEType == "" {
		return DefaultImageMIMEType
	}
	return i.MIMEType
}

// DialogueLine is one line of a sample conversation.
type DialogueLine struct {
	Speaker    string `json:"speaker"`
	Term       string `json:"term"`
	Definition string `json:"definition"`
}

// GrammarForm is one conjugation of a verb or adjective.
type GrammarForm struct {
	Tense       string `json:"tense"`
	Conjugation string `json:"conjugation"`
	Example     string `json:"example"`
}

// Details is the per-card cache of generated content.
type Details struct {
	Explanation Field[string]         `json:"explanation,omitzero"`
	Image       Field[Image]          `json:"image,omitzero"`
	Audio       Field[[]byte]         `json:"audio,omitzero"`
	Dialogue    Field[[]DialogueLine] `json:"sampleConversation,omitzero"`
	Grammar     Field[[]GrammarForm]  `json:"grammar,omitzero"`
}

// Merge returns d with every fetched field of patch written over it.
// Not-fetched fields in patch leave d untouched.
func (d Details) Merge(patch Details) Details {
	if patch.Explanation.Fetched() {
		d.Explanation = patch.Explanation
	}
	if patch.Image.Fetched() {
		d.Image = patch.Image
	}
	if patch.Audio.Fetched() {
		d.Audio = patch.Audio
	}
	if patch.Dialogue.Fetched() {
		d.Dialogue = patch.Dialogue
	}
	if patch.Grammar.Fetched() {
		d.Grammar = patch.Grammar
	}
	return d
}

// Review records one study answer. A wrong answer moves the card to the
// Errors category for later practice.
func (c *VocabCard) Review(correct bool, now time.Time) {
	c.Study.ReviewCount++
	c.Study.LastReviewed = now.UTC()
	if correct {
		c.Study.Status = StatusMastered
		return
	}
	c.Study.Status = StatusLearning
	c.Category = ErrorsCategory
}
