package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateOutputFormat(t *testing.T) {
	configured := []string{"json", "text", "markdown"}

	for _, format := range configured {
		assert.NoError(t, ValidateOutputFormat(format, configured), format)
	}

	assert.EqualError(t, ValidateOutputFormat("yaml", configured),
		"unsupported output format 'yaml'. Supported formats: [json text markdown]")
	assert.Error(t, ValidateOutputFormat("JSON", configured), "formats are case sensitive")
	assert.Error(t, ValidateOutputFormat("", configured))
	assert.Error(t, ValidateOutputFormat("markdown", []string{"json"}))

	// Nothing configured means no restriction.
	assert.NoError(t, ValidateOutputFormat("anything", nil))
}

func TestGetSupportedFormats(t *testing.T) {
	assert.Equal(t, []string{"json"}, GetSupportedFormats([]string{"json"}))
	assert.Equal(t, []string{"json", "markdown", "text"}, GetSupportedFormats(nil))
}
