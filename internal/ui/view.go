package ui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/frontdesk/internal/console"
	"github.com/desertthunder/frontdesk/internal/models"
)

// Sender delivers messages into a running program. [tea.Program] implements it.
type Sender interface {
	Send(msg tea.Msg)
}

// ProgramSender forwards to a program created after the view that sends to it.
// Messages sent before [ProgramSender.Attach] are dropped.
type ProgramSender struct {
	mu sync.RWMutex
	p  *tea.Program
}

func (s *ProgramSender) Attach(p *tea.Program) {
	s.mu.Lock()
	s.p = p
	s.mu.Unlock()
}

func (s *ProgramSender) Send(msg tea.Msg) {
	s.mu.RLock()
	p := s.p
	s.mu.RUnlock()
	if p != nil {
		p.Send(msg)
	}
}

var _ console.View[models.Client] = (*ProgramView[models.Client])(nil)

// ProgramView forwards every view call to a [Model] as a [Msg].
type ProgramView[R models.Record] struct {
	sender Sender
}

func NewProgramView[R models.Record](s Sender) *ProgramView[R] {
	return &ProgramView[R]{sender: s}
}

func (v *ProgramView[R]) RenderList(result models.ListResult[R]) {
	v.sender.Send(listLoadedMsg(result))
}
func (v *ProgramView[R]) ShowDetail(record R)        { v.sender.Send(detailLoadedMsg(record)) }
func (v *ProgramView[R]) ShowSuccess(message string) { v.sender.Send(statusMsg(message, false)) }
func (v *ProgramView[R]) ShowError(message string)   { v.sender.Send(statusMsg(message, true)) }
func (v *ProgramView[R]) ShowLoading()               { v.sender.Send(loadingMsg()) }
func (v *ProgramView[R]) ShowFilterStatus(state models.FilterState) {
	v.sender.Send(filterStatusMsg(state))
}
