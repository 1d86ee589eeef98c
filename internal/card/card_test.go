package card

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLanguage(t *testing.T) {
	tests := []struct {
		input   string
		want    Language
		wantErr bool
	}{
		{"Korean", Korean, false},
		{"korean", Korean, false},
		{" ko ", Korean, false},
		{"Japanese", Japanese, false},
		{"ja", Japanese, false},
		{"Bulgarian", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLanguage(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNew(t *testing.T) {
	c := New(" 고양이 ", "cat ", "Animals", Korean)

	assert.NotEmpty(t, c.ID)
	assert.Equal(t, "고양이", c.Term)
	assert.Equal(t, "cat", c.Definition)
	assert.Equal(t, StatusNew, c.Study.Status)
	assert.False(t, c.CreatedAt.IsZero())
	assert.Empty(t, Missing(c.Details, nil))
	assert.Equal(t, AllFields, Missing(c.Details, AllFields))

	other := New("개", "dog", "Animals", Korean)
	assert.NotEqual(t, c.ID, other.ID)
}

func TestImageContentType(t *testing.T) {
	assert.Equal(t, "image/png", Image{}.ContentType())
	assert.Equal(t, "image/jpeg", Image{MIMEType: "image/jpeg"}.ContentType())
}

func TestDetailsMerge(t *testing.T) {
	base := Details{
		Explanation: Of("old"),
		Audio:       Of([]byte{1, 2}),
	}
	patch := Details{
		Explanation: Of("new"),
		Grammar:     Empty[[]GrammarForm](),
	}

	merged := base.Merge(patch)

	assert.Equal(t, "new", merged.Explanation.OrElse(""))
	assert.Equal(t, []byte{1, 2}, merged.Audio.OrElse(nil))
	assert.True(t, merged.Grammar.IsEmpty())
	assert.False(t, merged.Image.Fetched())
	assert.False(t, merged.Dialogue.Fetched())

	// base is a value and must not change
	assert.Equal(t, "old", base.Explanation.OrElse(""))
}

func TestReview(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	c := New("고양이", "cat", "Animals", Korean)
	c.Review(true, now)
	assert.Equal(t, StatusMastered, c.Study.Status)
	assert.Equal(t, 1, c.Study.ReviewCount)
	assert.Equal(t, "Animals", c.Category)
	assert.Equal(t, now, c.Study.LastReviewed)

	c.Review(false, now.Add(time.Hour))
	assert.Equal(t, StatusLearning, c.Study.Status)
	assert.Equal(t, 2, c.Study.ReviewCount)
	assert.Equal(t, ErrorsCategory, c.Category)
}
