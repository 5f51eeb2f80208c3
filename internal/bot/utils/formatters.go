package utils

import (
	"fmt"
	"strings"

	"jober/internal/models"
)

const maxCoverLetterPreview = 80

var statusIcons = map[models.ApplicationStatus]string{
	models.ApplicationStatusPending:  "⏳",
	models.ApplicationStatusAccepted: "✅",
	models.ApplicationStatusRejected: "❌",
}

func StatusIcon(status models.ApplicationStatus) string {
	if icon, ok := statusIcons[status]; ok {
		return icon
	}
	return "•"
}

// FormatStatusChange renders a pushed status update
func FormatStatusChange(change models.StatusChange) string {
	var sb strings.Builder

	sb.WriteString("🔔 *Application update*\n\n")
	sb.WriteString(fmt.Sprintf("*%s*\n", EscapeMarkdown(change.JobTitle)))

	if change.CompanyName != "" {
		sb.WriteString(fmt.Sprintf("🏢 %s\n", EscapeMarkdown(change.CompanyName)))
	}

	sb.WriteString(fmt.Sprintf("%s Status: *%s*\n",
		StatusIcon(change.Status),
		EscapeMarkdown(string(change.Status)),
	))

	if !change.ChangedAt.IsZero() {
		changed := change.ChangedAt.UTC().Format("02.01.2006 15:04")
		sb.WriteString(fmt.Sprintf("📅 %s UTC\n", EscapeMarkdown(changed)))
	}

	return sb.String()
}

func FormatApplications(apps []models.ApplicationDetails) string {
	if len(apps) == 0 {
		return FormatNoApplicationsMessage()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("*📋 Your applications \\(%d\\):*\n\n", len(apps)))

	for _, app := range apps {
		sb.WriteString(fmt.Sprintf("%s *%s*",
			StatusIcon(app.Status),
			EscapeMarkdown(app.JobTitle),
		))
		if app.CompanyName != "" {
			sb.WriteString(fmt.Sprintf(" at %s", EscapeMarkdown(app.CompanyName)))
		}
		sb.WriteString(fmt.Sprintf("\n   %s", EscapeMarkdown(string(app.Status))))

		if letter := strings.TrimSpace(app.CoverLetter); letter != "" {
			sb.WriteString(fmt.Sprintf("\n   _%s_",
				EscapeMarkdown(TruncateString(letter, maxCoverLetterPreview)),
			))
		}
		sb.WriteString("\n\n")
	}

	return sb.String()
}

func FormatWelcomeMessage(firstName string) string {
	name := firstName
	if name == "" {
		name = "there"
	}

	return fmt.Sprintf(`👋 Hi, *%s*\!

I send you Jober application updates as soon as an employer changes their status\.

*To connect your account:*
Open your dashboard, press *Connect Telegram* and send me the command it shows\.

*Commands:*
/applications \- your applications and their status
/help \- help`, EscapeMarkdown(name))
}

func FormatLinkedMessage(fullName string) string {
	return fmt.Sprintf(`✅ Linked to *%s*\.

You will get a message here whenever one of your applications changes status\.
Send /applications to see them all\.`, EscapeMarkdown(fullName))
}

func FormatInvalidCodeMessage() string {
	return `⚠️ *This link code is invalid or expired*

Request a new one from your Jober dashboard\.`
}

func FormatNotLinkedMessage() string {
	return `ℹ️ This chat is not linked to a Jober account\.

Request a link code from your dashboard and send /start with it\.`
}

func FormatErrorMessage() string {
	return "😔 Something went wrong\\. Please try again later\\."
}

func FormatNoApplicationsMessage() string {
	return `😔 *No applications yet*

Browse jobs on Jober and apply to see them here\.`
}

func FormatHelpMessage() string {
	return `*📖 Help*

/start CODE \- link this chat to your Jober account
/applications \- list your applications and their status
/help \- this message

Status updates arrive automatically once the chat is linked\.`
}

// EscapeMarkdown escapes special characters for Telegram MarkdownV2
func EscapeMarkdown(text string) string {
	// _ * [ ] ( ) ~ ` > # + - = | { } . !
	replacer := strings.NewReplacer(
		"_", "\\_",
		"*", "\\*",
		"[", "\\[",
		"]", "\\]",
		"(", "\\(",
		")", "\\)",
		"~", "\\~",
		"`", "\\`",
		">", "\\>",
		"#", "\\#",
		"+", "\\+",
		"-", "\\-",
		"=", "\\=",
		"|", "\\|",
		"{", "\\{",
		"}", "\\}",
		".", "\\.",
		"!", "\\!",
	)

	return replacer.Replace(text)
}

// TruncateString cuts on rune boundaries so multibyte text stays valid
func TruncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}
