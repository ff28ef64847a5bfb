package archive

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ajmalps/trovebot/db"
	"github.com/ajmalps/trovebot/db/models"
	"github.com/ajmalps/trovebot/store"
	"github.com/ajmalps/trovebot/telegram"
)

type fakeGateway struct {
	calls []int64
	// failing destinations answer with a rejection
	failing map[int64]bool
	nextID  int64
}

func (f *fakeGateway) RelayFile(_ context.Context, destination, _, _ int64, mode telegram.RelayMode) (int64, error) {
	f.calls = append(f.calls, destination)
	if mode != telegram.RelayForward {
		return 0, fmt.Errorf("archive relay must forward, got %q", mode)
	}
	if f.failing[destination] {
		return 0, fmt.Errorf("%w: forwardMessage: not enough rights", telegram.ErrRejected)
	}
	f.nextID++
	return f.nextID, nil
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	cfg := db.DefaultConfig()
	cfg.DSN = ":memory:"
	gdb, err := db.Open(cfg)
	require.NoError(t, err)
	st, err := store.New(gdb, nil)
	require.NoError(t, err)
	return st
}

func docEvent(chatID, msgID int64, kind string) telegram.FileMessage {
	return telegram.FileMessage{
		Chat:      telegram.Chat{ID: chatID, Type: kind},
		From:      telegram.User{ID: 7},
		MessageID: msgID,
		Document:  &telegram.Document{FileID: "f1", FileUniqueID: "u1", FileName: "report.pdf", MimeType: "application/pdf", FileSize: 1024},
	}
}

func TestBuildEntryDocument(t *testing.T) {
	e := BuildEntry(docEvent(100, 5, models.ChatKindPrivate))
	require.Equal(t, models.FileKindDocument, e.Kind)
	require.Equal(t, "report.pdf", *e.Name)
	require.Equal(t, "application/pdf", *e.MimeType)
	require.Equal(t, int64(1024), *e.Size)
	require.Equal(t, int64(100), e.OriginChatID)
	require.Equal(t, int64(5), e.OriginMessageID)
}

func TestBuildEntryLargestPhoto(t *testing.T) {
	e := BuildEntry(telegram.FileMessage{
		Chat:      telegram.Chat{ID: 100, Type: models.ChatKindPrivate},
		MessageID: 5,
		Photo: []telegram.PhotoSize{
			{FileID: "small", FileSize: 100},
			{FileID: "big", FileSize: 9000},
			{FileID: "mid", FileSize: 4000},
		},
	})
	require.Equal(t, models.FileKindPhoto, e.Kind)
	require.Equal(t, "big", e.FileID)
	require.Equal(t, int64(9000), *e.Size)
	require.Nil(t, e.Name)
}

func TestBuildEntryVideoDuration(t *testing.T) {
	e := BuildEntry(telegram.FileMessage{
		Chat:      telegram.Chat{ID: 100, Type: models.ChatKindPrivate},
		MessageID: 5,
		Video:     &telegram.Video{FileID: "v", FileUniqueID: "vu", Duration: 90, MimeType: "video/mp4", FileSize: 5000},
	})
	require.Equal(t, models.FileKindVideo, e.Kind)
	require.Equal(t, int64(90), *e.Duration)
	require.Equal(t, "video/mp4", *e.MimeType)
}

func TestProcessArchivesToFirstWorkingDestination(t *testing.T) {
	st := newTestStore(t)
	gw := &fakeGateway{failing: map[int64]bool{-900: true}}
	relay, err := New(st, gw, []int64{-900, -901, -902}, 0, nil)
	require.NoError(t, err)

	entryID, archived, err := relay.Process(context.Background(), docEvent(100, 5, models.ChatKindPrivate))
	require.NoError(t, err)
	require.True(t, archived)
	// Fallback stops at the first success.
	require.Equal(t, []int64{-900, -901}, gw.calls)

	e, ok, err := st.FindByRelayMapping(context.Background(), -901, 1)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, entryID, e.ID)
}

func TestProcessAllDestinationsFail(t *testing.T) {
	st := newTestStore(t)
	gw := &fakeGateway{failing: map[int64]bool{-900: true}}
	relay, err := New(st, gw, []int64{-900}, 0, nil)
	require.NoError(t, err)

	_, archived, err := relay.Process(context.Background(), docEvent(100, 5, models.ChatKindPrivate))
	require.NoError(t, err)
	require.False(t, archived)

	// The entry exists and counts, but is invisible to the reverse lookup.
	n, err := st.CountFileEntries(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
	_, ok, err := st.FindByRelayMapping(context.Background(), -900, 1)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestProcessSchedulesGroupOriginDeletion(t *testing.T) {
	st := newTestStore(t)
	gw := &fakeGateway{}
	relay, err := New(st, gw, []int64{-900}, 300*time.Second, nil)
	require.NoError(t, err)

	_, _, err = relay.Process(context.Background(), docEvent(-100, 5, models.ChatKindSupergroup))
	require.NoError(t, err)

	deadline := time.Now().UTC().Add(400 * time.Second).Unix()
	job, ok, err := st.ClaimDueDeleteJob(context.Background(), deadline)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(-100), job.ChatID)
	require.Equal(t, int64(5), job.MessageID)
}

func TestProcessPrivateOriginNotScheduled(t *testing.T) {
	st := newTestStore(t)
	relay, err := New(st, &fakeGateway{}, []int64{-900}, 300*time.Second, nil)
	require.NoError(t, err)

	_, _, err = relay.Process(context.Background(), docEvent(100, 5, models.ChatKindPrivate))
	require.NoError(t, err)

	deadline := time.Now().UTC().Add(400 * time.Second).Unix()
	_, ok, err := st.ClaimDueDeleteJob(context.Background(), deadline)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestProcessNoAttachment(t *testing.T) {
	st := newTestStore(t)
	relay, err := New(st, &fakeGateway{}, []int64{-900}, 0, nil)
	require.NoError(t, err)

	_, _, err = relay.Process(context.Background(), telegram.FileMessage{
		Chat:      telegram.Chat{ID: 100, Type: models.ChatKindPrivate},
		MessageID: 5,
	})
	require.Error(t, err)
}
