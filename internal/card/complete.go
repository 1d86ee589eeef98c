package card

// FieldName identifies one of the five detail fields.
type FieldName string

const (
	FieldExplanation FieldName = "explanation"
	FieldImage       FieldName = "image"
	FieldAudio       FieldName = "audio"
	FieldDialogue    FieldName = "dialogue"
	FieldGrammar     FieldName = "grammar"
)

// FieldSet is an ordered set of detail fields.
type FieldSet []FieldName

var (
	// LightweightFields is what a quick preview needs.
	LightweightFields = FieldSet{FieldExplanation, FieldImage, FieldAudio}

	// AllFields is what the full detail view needs.
	AllFields = FieldSet{FieldExplanation, FieldImage, FieldAudio, FieldDialogue, FieldGrammar}
)

// Contains reports whether name is in the set.
func (s FieldSet) Contains(name FieldName) bool {
	for _, n := range s {
		if n == name {
			return true
		}
	}
	return false
}

// State returns the fetch state of the named field. Unknown names report
// StateNotFetched.
func (d Details) State(name FieldName) State {
	switch name {
	case FieldExplanation:
		return d.Explanation.State()
	case FieldImage:
		return d.Image.State()
	case FieldAudio:
		return d.Audio.State()
	case FieldDialogue:
		return d.Dialogue.State()
	case FieldGrammar:
		return d.Grammar.State()
	default:
		return StateNotFetched
	}
}

// Fetched reports whether the named field was fetched. Unknown names report false.
func (d Details) Fetched(name FieldName) bool {
	return d.State(name) != StateNotFetched
}

// Missing returns the required fields that have not been fetched, in order.
func Missing(d Details, required FieldSet) FieldSet {
	var missing FieldSet
	for _, name := range required {
		if !d.Fetched(name) {
			missing = append(missing, name)
		}
	}
	return missing
}

// IsComplete treats fetched-and-empty as complete and not-fetched as incomplete.
func IsComplete(d Details, required FieldSet) bool {
	return len(Missing(d, required)) == 0
}
