package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/frontdesk/internal/models"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgListLoaded MsgKind = iota
	MsgDetailLoaded
	MsgStatus
	MsgLoading
	MsgFilterStatus
)

// Kind reports which constructor built m.
func (m Msg) Kind() MsgKind { return m.kind }

type statusData struct {
	text string
	err  bool
}

// listLoadedMsg is the constructor for [MsgListLoaded]
func listLoadedMsg[R models.Record](result models.ListResult[R]) Msg {
	return Msg{kind: MsgListLoaded, data: result}
}

// detailLoadedMsg is the constructor for [MsgDetailLoaded]
func detailLoadedMsg[R models.Record](record R) Msg {
	return Msg{kind: MsgDetailLoaded, data: record}
}

// statusMsg is the constructor for [MsgStatus]
func statusMsg(text string, isErr bool) Msg {
	return Msg{kind: MsgStatus, data: statusData{text: text, err: isErr}}
}

// loadingMsg is the constructor for [MsgLoading]
func loadingMsg() Msg {
	return Msg{kind: MsgLoading}
}

// filterStatusMsg is the constructor for [MsgFilterStatus]
func filterStatusMsg(state models.FilterState) Msg {
	return Msg{kind: MsgFilterStatus, data: state}
}
