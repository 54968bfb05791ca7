package gmail

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	gmailv1 "google.golang.org/api/gmail/v1"

	"mailpane/internal/model"
)

// EmailStore declares the persistence capabilities the sync routine needs.
// internal/store backs this with SQLite; an in-memory implementation works
// for tests.
type EmailStore interface {
	UpsertEmails(ctx context.Context, emails []model.Email) error
	DeleteEmails(ctx context.Context, ids []string) error
	ListEmails(ctx context.Context, limit int) ([]model.Email, error)
	GetEmail(ctx context.Context, id string) (model.Email, bool, error)
	CountEmails(ctx context.Context) (int, error)
	GetLastSyncAt(ctx context.Context) (time.Time, error)
	SetLastSyncAt(ctx context.Context, t time.Time) error
}

// SyncInbox mirrors the most recent window of INBOX messages into the
// local store: fetch full, decode, upsert, and drop cached messages that
// have left the inbox. The mirror is a cache of decoded records, nothing
// more; the provider stays the source of truth.
func SyncInbox(ctx context.Context, svc *gmailv1.Service, store EmailStore, logger *zap.Logger, window int64, includeSpamTrash bool) error {
	if store == nil {
		return fmt.Errorf("email store is required")
	}

	emails, err := FetchInbox(ctx, svc, logger, window, includeSpamTrash)
	if err != nil {
		return fmt.Errorf("sync inbox: %w", err)
	}

	if err := store.UpsertEmails(ctx, emails); err != nil {
		return fmt.Errorf("upsert emails: %w", err)
	}

	// Evict cached messages no longer present in the synced window that
	// also no longer carry INBOX remotely (archived or trashed).
	fresh := make(map[string]struct{}, len(emails))
	for _, e := range emails {
		fresh[e.ID] = struct{}{}
	}
	cached, err := store.ListEmails(ctx, 0)
	if err != nil {
		return fmt.Errorf("list cached emails: %w", err)
	}
	var stale []string
	for _, e := range cached {
		if _, ok := fresh[e.ID]; ok {
			continue
		}
		msg, err := svc.Users.Messages.Get(user, e.ID).Format("minimal").Context(ctx).Do()
		if err != nil || !hasLabelID(msg, model.LabelInbox) {
			stale = append(stale, e.ID)
		}
	}
	if len(stale) > 0 {
		if err := store.DeleteEmails(ctx, stale); err != nil {
			return fmt.Errorf("evict stale emails: %w", err)
		}
		if logger != nil {
			logger.Info("evicted stale cache entries", zap.Int("count", len(stale)))
		}
	}

	if err := store.SetLastSyncAt(ctx, time.Now()); err != nil {
		return err
	}
	if logger != nil {
		logger.Info("inbox synced", zap.Int("fetched", len(emails)), zap.Int("evicted", len(stale)))
	}
	return nil
}

func hasLabelID(m *gmailv1.Message, id string) bool {
	if m == nil {
		return false
	}
	for _, l := range m.LabelIds {
		if l == id {
			return true
		}
	}
	return false
}
