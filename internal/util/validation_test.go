package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type samplePayload struct {
	Title string `json:"title" validate:"required,min=2"`
	Type  string `json:"type" validate:"required,oneof=VIDEO PDF"`
	URL   string `json:"fileUrl" validate:"omitempty,url"`
}

func TestValidateStructJoinsMessages(t *testing.T) {
	err := ValidateStruct(samplePayload{Title: "a", Type: "MP3", URL: "nope"})
	require.Error(t, err)

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Len(t, ve.Messages, 3)
	assert.Contains(t, ve.Messages[0], "title")
	assert.Contains(t, ve.Messages[1], "type must be one of [VIDEO PDF]")
	assert.Contains(t, ve.Messages[2], "fileUrl")
	assert.Contains(t, err.Error(), "Validation Error: ")
	assert.Contains(t, err.Error(), ", ")
}

func TestValidateStructRequired(t *testing.T) {
	err := ValidateStruct(samplePayload{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "title is required")
	assert.Contains(t, err.Error(), "type is required")
}

func TestValidateStructOK(t *testing.T) {
	assert.NoError(t, ValidateStruct(samplePayload{Title: "Go", Type: "PDF", URL: "https://example.com/a.pdf"}))
	assert.True(t, IsValidationError(NewValidationError("x")))
	assert.False(t, IsValidationError(ErrNotFound))
}
