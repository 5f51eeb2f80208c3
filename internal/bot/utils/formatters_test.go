package utils

import (
	"testing"
	"time"

	"jober/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestEscapeMarkdown(t *testing.T) {
	assert.Equal(t, `C\+\+ dev \(senior\)\. \#1\!`, EscapeMarkdown("C++ dev (senior). #1!"))
	assert.Equal(t, "plain text", EscapeMarkdown("plain text"))
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", TruncateString("short", 10))
	assert.Equal(t, "abcdefg...", TruncateString("abcdefghijklmnop", 10))
	// multibyte input is cut on rune boundaries
	assert.Equal(t, "Привет...", TruncateString("Привет, мир!", 9))
}

func TestFormatStatusChange(t *testing.T) {
	msg := FormatStatusChange(models.StatusChange{
		JobTitle:    "Senior Go Dev.",
		CompanyName: "Acme-Co",
		Status:      models.ApplicationStatusAccepted,
		ChangedAt:   time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC),
	})

	assert.Contains(t, msg, `*Senior Go Dev\.*`)
	assert.Contains(t, msg, `Acme\-Co`)
	assert.Contains(t, msg, "✅ Status: *accepted*")
	assert.Contains(t, msg, `05\.03\.2024 14:30 UTC`)
}

func TestFormatApplications(t *testing.T) {
	assert.Equal(t, FormatNoApplicationsMessage(), FormatApplications(nil))

	msg := FormatApplications([]models.ApplicationDetails{
		{
			Application: models.Application{Status: models.ApplicationStatusRejected, CoverLetter: "I love design"},
			JobTitle:    "Designer",
			CompanyName: "Studio",
		},
		{
			Application: models.Application{Status: models.ApplicationStatusPending},
			JobTitle:    "Writer",
		},
	})

	assert.Contains(t, msg, `\(2\)`)
	assert.Contains(t, msg, "❌ *Designer* at Studio")
	assert.Contains(t, msg, "_I love design_")
	assert.Contains(t, msg, "⏳ *Writer*\n")
}

func TestInlineApplicationsKeyboard(t *testing.T) {
	assert.Empty(t, InlineApplicationsKeyboard("").InlineKeyboard)

	kb := InlineApplicationsKeyboard("https://jober.test/dashboard")
	if assert.Len(t, kb.InlineKeyboard, 1) {
		assert.Equal(t, "https://jober.test/dashboard", kb.InlineKeyboard[0][0].URL)
	}
}
