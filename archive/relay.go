package archive

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ajmalps/trovebot/db/models"
	"github.com/ajmalps/trovebot/store"
	"github.com/ajmalps/trovebot/telegram"
)

// Gateway is the outbound surface the relay needs.
type Gateway interface {
	RelayFile(ctx context.Context, destination, originChat, originMessageID int64, mode telegram.RelayMode) (int64, error)
}

// Relay places copies of file-bearing messages in the archive channels
// and records the mapping. Metadata capture always succeeds or fails on
// its own; relay failure never loses the index entry.
type Relay struct {
	store        *store.Store
	gw           Gateway
	destinations []int64
	deleteDelay  time.Duration
	log          *slog.Logger
}

func New(st *store.Store, gw Gateway, destinations []int64, deleteDelay time.Duration, log *slog.Logger) (*Relay, error) {
	if st == nil {
		return nil, fmt.Errorf("nil store")
	}
	if gw == nil {
		return nil, fmt.Errorf("nil gateway")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Relay{
		store:        st,
		gw:           gw,
		destinations: destinations,
		deleteDelay:  deleteDelay,
		log:          log,
	}, nil
}

// BuildEntry extracts per-kind metadata from a file message. Photos are
// a size-ordered variant list; the largest recorded size wins.
func BuildEntry(ev telegram.FileMessage) *models.FileEntry {
	entry := &models.FileEntry{
		OriginChatID:    ev.Chat.ID,
		OriginMessageID: ev.MessageID,
		OriginChatKind:  ev.Chat.Type,
		ParticipantID:   ev.From.ID,
		Caption:         strPtr(ev.Caption),
	}

	switch {
	case ev.Document != nil:
		d := ev.Document
		entry.Kind = models.FileKindDocument
		entry.Name = strPtr(d.FileName)
		entry.MimeType = strPtr(d.MimeType)
		entry.Size = sizePtr(d.FileSize)
		entry.FileID = d.FileID
		entry.FileUniqueID = d.FileUniqueID
	case len(ev.Photo) > 0:
		best := ev.Photo[0]
		for _, p := range ev.Photo[1:] {
			if p.FileSize > best.FileSize {
				best = p
			}
		}
		entry.Kind = models.FileKindPhoto
		entry.Size = sizePtr(best.FileSize)
		entry.FileID = best.FileID
		entry.FileUniqueID = best.FileUniqueID
	case ev.Video != nil:
		v := ev.Video
		entry.Kind = models.FileKindVideo
		entry.Name = strPtr(v.FileName)
		entry.MimeType = strPtr(v.MimeType)
		entry.Size = sizePtr(v.FileSize)
		entry.Duration = durationPtr(v.Duration)
		entry.FileID = v.FileID
		entry.FileUniqueID = v.FileUniqueID
	case ev.Audio != nil:
		a := ev.Audio
		entry.Kind = models.FileKindAudio
		entry.Name = strPtr(a.FileName)
		entry.MimeType = strPtr(a.MimeType)
		entry.Size = sizePtr(a.FileSize)
		entry.Duration = durationPtr(a.Duration)
		entry.FileID = a.FileID
		entry.FileUniqueID = a.FileUniqueID
	case ev.Voice != nil:
		v := ev.Voice
		entry.Kind = models.FileKindVoice
		entry.MimeType = strPtr(v.MimeType)
		entry.Size = sizePtr(v.FileSize)
		entry.Duration = durationPtr(v.Duration)
		entry.FileID = v.FileID
		entry.FileUniqueID = v.FileUniqueID
	}
	return entry
}

// Process records the index entry, then tries the configured archive
// destinations in order with a provenance-preserving forward, attaching
// the relay mapping on the first success. For multi-party origin chats
// a durable deferred deletion of the origin message is enqueued.
//
// Only the entry insert escalates an error; relay and enqueue failures
// are logged and swallowed so the submitter still gets a metadata
// acknowledgment.
func (r *Relay) Process(ctx context.Context, ev telegram.FileMessage) (entryID string, archived bool, err error) {
	entry := BuildEntry(ev)
	if entry.Kind == "" {
		return "", false, fmt.Errorf("no attachment in message %d", ev.MessageID)
	}

	entryID, err = r.store.InsertFileEntry(ctx, entry)
	if err != nil {
		return "", false, fmt.Errorf("insert entry: %w", err)
	}

	for _, dest := range r.destinations {
		archiveMsgID, relayErr := r.gw.RelayFile(ctx, dest, ev.Chat.ID, ev.MessageID, telegram.RelayForward)
		if relayErr != nil {
			r.log.Warn("relay_failed", "entry_id", entryID, "destination", dest, "error", relayErr.Error())
			continue
		}
		if err := r.store.AttachRelayMapping(ctx, entryID, dest, archiveMsgID); err != nil {
			r.log.Warn("relay_mapping_attach_failed", "entry_id", entryID, "destination", dest, "error", err.Error())
			continue
		}
		archived = true
		break
	}
	if !archived {
		r.log.Warn("relay_unarchived", "entry_id", entryID, "destinations", len(r.destinations))
	}

	if models.IsMultiParty(ev.Chat.Type) && r.deleteDelay > 0 {
		fireAt := time.Now().UTC().Add(r.deleteDelay).Unix()
		if err := r.store.EnqueueDeleteJob(ctx, ev.Chat.ID, ev.MessageID, fireAt); err != nil {
			r.log.Warn("delete_job_enqueue_failed", "entry_id", entryID, "error", err.Error())
		}
	}
	return entryID, archived, nil
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func sizePtr(n int64) *int64 {
	if n <= 0 {
		return nil
	}
	return &n
}

func durationPtr(seconds int) *int64 {
	if seconds <= 0 {
		return nil
	}
	d := int64(seconds)
	return &d
}
