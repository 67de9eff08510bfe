// Package ui implements the terminal interface for the movie catalog.
//
// The screen logic is split in two layers. Pure controllers (Pager, Form,
// and the route guards) hold all decision state and are tested without a
// terminal. The bubbletea Model on top of them only translates key presses
// into controller calls and controller state into rendered views.
package ui
