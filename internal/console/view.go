package console

import "github.com/desertthunder/frontdesk/internal/models"

// View renders what an [Orchestrator] tells it to. Methods may be called from any goroutine.
type View[R models.Record] interface {
	RenderList(result models.ListResult[R])
	ShowDetail(record R)
	ShowSuccess(message string)
	ShowError(message string)
	ShowLoading()
	ShowFilterStatus(state models.FilterState)
}
