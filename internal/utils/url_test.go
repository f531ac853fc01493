package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateURL(t *testing.T) {
	assert.NoError(t, ValidateURL("https://api.macropath.app"))
	assert.NoError(t, ValidateURL("http://127.0.0.1:8080"))

	for _, bad := range []string{"", "not-a-url", "ftp://host", "http://", "://nope"} {
		assert.ErrorIs(t, ValidateURL(bad), ErrInvalidURL, bad)
	}
}

func TestWithQuery(t *testing.T) {
	assert.Equal(t, "/mealPlans/get", WithQuery("/mealPlans/get", nil))
	assert.Equal(t, "/mealPlans/get", WithQuery("/mealPlans/get", map[string]string{"week_start": ""}))
	assert.Equal(t, "/mealPlans/get?week_start=2026-10-12", WithQuery("/mealPlans/get", map[string]string{"week_start": "2026-10-12"}))
}
