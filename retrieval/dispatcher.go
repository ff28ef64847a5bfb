package retrieval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ajmalps/trovebot/store"
	"github.com/ajmalps/trovebot/telegram"
)

// Gateway is the outbound surface the dispatcher needs.
type Gateway interface {
	RelayFile(ctx context.Context, destination, originChat, originMessageID int64, mode telegram.RelayMode) (int64, error)
	DeleteMessage(ctx context.Context, chatID, messageID int64) error
}

// Dispatcher resolves a selected result back to an archived copy and
// re-delivers or removes it.
type Dispatcher struct {
	store *store.Store
	gw    Gateway
	log   *slog.Logger
}

func New(st *store.Store, gw Gateway, log *slog.Logger) (*Dispatcher, error) {
	if st == nil {
		return nil, fmt.Errorf("nil store")
	}
	if gw == nil {
		return nil, fmt.Errorf("nil gateway")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{store: st, gw: gw, log: log}, nil
}

// DeliverByReference copies the archived message into the recipient's
// private chat. The copy mode keeps the archive channel invisible to the
// recipient. telegram.ErrRecipientUnreachable passes through so callers
// can offer a deep link instead.
func (d *Dispatcher) DeliverByReference(ctx context.Context, destination, archiveMessageID, recipient int64) error {
	_, err := d.gw.RelayFile(ctx, recipient, destination, archiveMessageID, telegram.RelayCopy)
	if err != nil {
		if errors.Is(err, telegram.ErrRecipientUnreachable) {
			return err
		}
		return fmt.Errorf("deliver %d/%d: %w", destination, archiveMessageID, err)
	}
	return nil
}

// DeliverAll re-runs the name search bounded by capLimit and attempts
// delivery of every archived result. Partial failure is expected; the
// counts let the caller report "N of M delivered".
func (d *Dispatcher) DeliverAll(ctx context.Context, fragment string, recipient int64, capLimit int) (delivered, total int, err error) {
	if capLimit <= 0 {
		capLimit = 8
	}
	entries, err := d.store.FindByNameFragment(ctx, fragment, capLimit)
	if err != nil {
		return 0, 0, err
	}
	for _, e := range entries {
		if !e.Archived() {
			continue
		}
		total++
		if err := d.DeliverByReference(ctx, *e.ArchiveChatID, *e.ArchiveMessageID, recipient); err != nil {
			d.log.Warn("deliver_all_item_failed", "entry_id", e.ID, "error", err.Error())
			continue
		}
		delivered++
	}
	return delivered, total, nil
}

// RemoveByMapping deletes both the origin and archived copies
// best-effort, and soft-deletes the index entry regardless of either
// outcome: the record must reflect that deletion was requested even
// under partial platform failure.
func (d *Dispatcher) RemoveByMapping(ctx context.Context, destination, archiveMessageID int64) (bool, error) {
	entry, ok, err := d.store.FindByRelayMapping(ctx, destination, archiveMessageID)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	if err := d.gw.DeleteMessage(ctx, destination, archiveMessageID); err != nil {
		d.log.Warn("archive_copy_delete_failed", "entry_id", entry.ID, "error", err.Error())
	}
	if err := d.gw.DeleteMessage(ctx, entry.OriginChatID, entry.OriginMessageID); err != nil {
		d.log.Warn("origin_copy_delete_failed", "entry_id", entry.ID, "error", err.Error())
	}

	if err := d.store.MarkDeleted(ctx, entry.ID); err != nil {
		return true, fmt.Errorf("mark deleted: %w", err)
	}
	return true, nil
}
