// Package ui provides the terminal month calendar.
//
// CalendarModel is a bubbletea model over a calendar.View: n and p move
// between months, t jumps to today and r reloads. RenderPlain renders a
// single month as plain text for pipes and --plain.
package ui
