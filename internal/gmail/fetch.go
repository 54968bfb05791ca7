package gmail

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
	gmailv1 "google.golang.org/api/gmail/v1"

	"mailpane/internal/codec"
	"mailpane/internal/model"
)

const user = "me"

// FetchMessage retrieves one message in full format and decodes it. Decode
// is total, so a malformed message still comes back as a usable record;
// only the transport call itself can fail.
func FetchMessage(ctx context.Context, svc *gmailv1.Service, id string) (model.Email, error) {
	msg, err := svc.Users.Messages.Get(user, id).Format("full").Context(ctx).Do()
	if err != nil {
		return model.Email{}, fmt.Errorf("get message %s: %w", id, wrapAPIError(err))
	}
	return codec.Decode(msg), nil
}

// FetchInbox lists up to max INBOX messages and fetches them in full
// concurrently. Individual fetch failures are logged and skipped; the
// result is sorted newest first.
func FetchInbox(ctx context.Context, svc *gmailv1.Service, logger *zap.Logger, max int64, includeSpamTrash bool) ([]model.Email, error) {
	list, err := svc.Users.Messages.List(user).
		LabelIds(model.LabelInbox).
		IncludeSpamTrash(includeSpamTrash).
		MaxResults(max).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", wrapAPIError(err))
	}

	ids := make([]string, 0, len(list.Messages))
	for _, m := range list.Messages {
		ids = append(ids, m.Id)
	}
	emails := fetchBatch(ctx, svc, logger, ids)

	sort.SliceStable(emails, func(i, j int) bool {
		return emails[i].Date.After(emails[j].Date)
	})
	return emails, nil
}

// FetchThread retrieves every message of a conversation, decoded, oldest
// first so the thread reads top to bottom.
func FetchThread(ctx context.Context, svc *gmailv1.Service, threadID string) ([]model.Email, error) {
	thread, err := svc.Users.Threads.Get(user, threadID).Format("full").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("get thread %s: %w", threadID, wrapAPIError(err))
	}
	emails := make([]model.Email, 0, len(thread.Messages))
	for _, msg := range thread.Messages {
		emails = append(emails, codec.Decode(msg))
	}
	sort.SliceStable(emails, func(i, j int) bool {
		return emails[i].Date.Before(emails[j].Date)
	})
	return emails, nil
}

// fetchBatch pulls full messages through a bounded worker pool and decodes
// each one. Order of the result is unspecified; callers sort.
func fetchBatch(ctx context.Context, svc *gmailv1.Service, logger *zap.Logger, ids []string) []model.Email {
	if len(ids) == 0 {
		return nil
	}

	type job struct{ id string }
	type result struct {
		email model.Email
		err   error
		id    string
	}

	jobs := make(chan job, len(ids))
	results := make(chan result, len(ids))

	const workerCount = 8
	var wg sync.WaitGroup
	wg.Add(workerCount)
	for i := 0; i < workerCount; i++ {
		go func() {
			defer wg.Done()
			for j := range jobs {
				select {
				case <-ctx.Done():
					return
				default:
				}
				msg, err := svc.Users.Messages.Get(user, j.id).Format("full").Context(ctx).Do()
				if err != nil {
					results <- result{id: j.id, err: err}
					continue
				}
				results <- result{email: codec.Decode(msg)}
			}
		}()
	}

	for _, id := range ids {
		jobs <- job{id: id}
	}
	close(jobs)
	wg.Wait()
	close(results)

	emails := make([]model.Email, 0, len(ids))
	for r := range results {
		if r.err != nil {
			if logger != nil {
				logger.Warn("skipping message", zap.String("id", r.id), zap.Error(r.err))
			}
			continue
		}
		emails = append(emails, r.email)
	}
	return emails
}
