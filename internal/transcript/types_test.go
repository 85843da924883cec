package transcript

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegment_Validate(t *testing.T) {
	tests := []struct {
		name    string
		seg     Segment
		wantErr bool
	}{
		{name: "valid", seg: Segment{Start: 0, End: 1.5, Text: "ok", Confidence: 0.9}},
		{name: "negative start", seg: Segment{Start: -1, End: 1, Confidence: 0.5}, wantErr: true},
		{name: "end before start", seg: Segment{Start: 2, End: 2, Confidence: 0.5}, wantErr: true},
		{name: "confidence above one", seg: Segment{Start: 0, End: 1, Confidence: 1.2}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.seg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidateAll_ReportsIndex(t *testing.T) {
	err := ValidateAll([]Segment{
		{Start: 0, End: 1, Confidence: 1},
		{Start: 3, End: 2, Confidence: 1},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "transcript[1]")
}

func TestText(t *testing.T) {
	assert.Equal(t, "a b", Text([]Segment{{Text: "a"}, {Text: "b"}}))
	assert.Equal(t, "", Text(nil))
}
