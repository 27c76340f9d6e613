// Package ui holds the color themes shared by the text presenter and the TUI
// dashboard. It honors NO_COLOR.
package ui
