package service

import (
	"context"

	"worksmart/internal/modules/daemon/domain"
	sessiondto "worksmart/internal/modules/session/dto"
	trackerdto "worksmart/internal/modules/tracker/dto"
)

// handler serves IPC requests against the in-process modules.
type handler struct {
	s *DaemonService
}

func (h *handler) StartSession(ctx context.Context) (sessiondto.SessionOutput, error) {
	out, err := h.s.sessions.Start(ctx)
	if err == nil {
		h.s.logger.Info("session started", "session_id", out.ID)
	}
	return out, err
}

func (h *handler) StopSession(ctx context.Context, mode string) (sessiondto.SessionOutput, error) {
	return h.s.sessions.Stop(ctx, sessiondto.StopInput{Mode: mode})
}

func (h *handler) Session(ctx context.Context) (sessiondto.SessionOutput, error) {
	return h.s.sessions.Get(ctx)
}

func (h *handler) Today(ctx context.Context) (trackerdto.TodayOutput, error) {
	return h.s.tracker.GetToday(ctx)
}

func (h *handler) Status(ctx context.Context) (domain.Status, error) {
	return h.s.status(ctx)
}

func (h *handler) Stop(context.Context) error {
	h.s.requestStop()
	return nil
}
