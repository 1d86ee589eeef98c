package generator

import "fmt"

// Degraded explanation texts.
const (
	NoExplanation       = "No explanation available."
	ExplanationFailed   = "Could not generate explanation."
	defaultSpeechPrompt = "Pronounce the text with native pronunciation. Speak slowly and clearly for language learners."
)

var (
	dialogueFields = []string{"speaker", "term", "definition"}
	grammarFields  = []string{"tense", "conjugation", "example"}
)

func explanationPrompt(s Subject) string {
	return fmt.Sprintf(`Explain the %s word "%s" (meaning: %s). Provide a very concise, beginner-friendly nuance or mnemonic. 1-2 short sentences max. Focus on how a beginner would use it.`,
		s.Language, s.Term, s.Definition)
}

func imagePrompt(s Subject) string {
	return fmt.Sprintf(`Draw a playful, hand-drawn doodle illustration representing the concept: "%s" (%s word: %s).
Style: Blue ballpoint pen sketch on cream paper. Monochromatic blue line art.
Simple, cute, loose lines. No text in the image. White or cream background.`,
		s.Definition, s.Language, s.Term)
}

func dialogueRequest(s Subject) ListRequest {
	return ListRequest{
		Prompt: fmt.Sprintf(`Create a simple, beginner-level dialogue (2 exchanges max) in %s using the word "%s" (%s). Ensure the grammar and vocabulary are suitable for a beginner. Include English translations.
Each line has the 'speaker', the line in %s as 'term' and its English translation as 'definition'.`,
			s.Language, s.Term, s.Definition, s.Language),
		Fields: dialogueFields,
	}
}

func grammarRequest(s Subject) ListRequest {
	return ListRequest{
		Prompt: fmt.Sprintf(`Analyze the %s word "%s" (meaning: %s).
If it is a Verb or Adjective that conjugates, provide 3 common conjugation forms (e.g. Polite, Past, Future/Te-form etc).

For each, provide the 'tense' name, the conjugated 'conjugation', and a simple 'example' sentence using it.
Keep examples very simple and short, suitable for beginners.

If it is a Noun or other non-conjugating word, return an empty array [].`,
			s.Language, s.Term, s.Definition),
		Fields: grammarFields,
	}
}
