package services

import (
	"context"

	redisclient "github.com/yungbote/notescribe-backend/internal/clients/redis"
	"github.com/yungbote/notescribe-backend/internal/domain"
	"github.com/yungbote/notescribe-backend/internal/platform/ctxutil"
	"github.com/yungbote/notescribe-backend/internal/platform/logger"
	"github.com/yungbote/notescribe-backend/internal/sse"
)

// NoteNotifier broadcasts note changes to the patient's room. Fire and
// forget: a failed broadcast is logged and never fails the caller.
type NoteNotifier interface {
	NoteCreated(ctx context.Context, note *domain.Note)
	NoteUpdated(ctx context.Context, note *domain.Note)
}

type noteNotifier struct {
	log *logger.Logger
	bus redisclient.NoteBus
	hub *sse.Hub
}

// NewNoteNotifier prefers the redis bus so every API instance's hub sees
// the event; without a bus it broadcasts to the local hub only.
func NewNoteNotifier(baseLog *logger.Logger, bus redisclient.NoteBus, hub *sse.Hub) NoteNotifier {
	return &noteNotifier{
		log: baseLog.With("service", "NoteNotifier"),
		bus: bus,
		hub: hub,
	}
}

func (n *noteNotifier) NoteCreated(ctx context.Context, note *domain.Note) {
	n.emit(ctx, sse.EventNoteCreated, note)
}

func (n *noteNotifier) NoteUpdated(ctx context.Context, note *domain.Note) {
	n.emit(ctx, sse.EventNoteUpdated, note)
}

func (n *noteNotifier) emit(ctx context.Context, event sse.Event, note *domain.Note) {
	if note == nil {
		return
	}
	msg := sse.Message{
		Channel: sse.PatientChannel(note.PatientID),
		Event:   event,
		Data:    note,
	}
	if n.bus != nil {
		if err := n.bus.Publish(ctxutil.Default(ctx), msg); err != nil {
			n.log.Warn("Note event publish failed", "event", event, "note_id", note.ID, "error", err)
		}
		return
	}
	if n.hub != nil {
		n.hub.Broadcast(msg)
	}
}
