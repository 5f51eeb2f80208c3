package utils

import (
	tele "gopkg.in/telebot.v3"
)

var (
	mainMenu = &tele.ReplyMarkup{ResizeKeyboard: true}

	BtnApplications = mainMenu.Text("📋 Applications")
	BtnHelp         = mainMenu.Text("❓ Help")
)

func init() {
	mainMenu.Reply(
		mainMenu.Row(BtnApplications, BtnHelp),
	)
}

func MainMenuKeyboard() *tele.ReplyMarkup {
	return mainMenu
}

// InlineApplicationsKeyboard links back to the dashboard when a base URL is known
func InlineApplicationsKeyboard(dashboardURL string) *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}
	if dashboardURL == "" {
		return menu
	}

	btn := menu.URL("Open dashboard", dashboardURL)
	menu.Inline(menu.Row(btn))

	return menu
}
