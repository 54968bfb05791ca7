package gmail

import (
	"context"
	"fmt"

	gmailv1 "google.golang.org/api/gmail/v1"

	"mailpane/internal/model"
)

// Flag toggles are remote label operations. A decoded Email is never
// mutated; callers re-fetch or patch their local copy after one of these
// succeeds.

// MarkRead removes the UNREAD label from a message.
func MarkRead(ctx context.Context, svc *gmailv1.Service, id string) error {
	return modifyLabels(ctx, svc, id, nil, []string{model.LabelUnread})
}

// MarkUnread adds the UNREAD label back.
func MarkUnread(ctx context.Context, svc *gmailv1.Service, id string) error {
	return modifyLabels(ctx, svc, id, []string{model.LabelUnread}, nil)
}

// Star adds the STARRED label.
func Star(ctx context.Context, svc *gmailv1.Service, id string) error {
	return modifyLabels(ctx, svc, id, []string{model.LabelStarred}, nil)
}

// Unstar removes the STARRED label.
func Unstar(ctx context.Context, svc *gmailv1.Service, id string) error {
	return modifyLabels(ctx, svc, id, nil, []string{model.LabelStarred})
}

// Archive removes the INBOX label from the given messages (batch).
func Archive(ctx context.Context, svc *gmailv1.Service, messageIDs []string) error {
	for _, id := range messageIDs {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := modifyLabels(ctx, svc, id, nil, []string{model.LabelInbox}); err != nil {
			return fmt.Errorf("archive message %s: %w", id, err)
		}
	}
	return nil
}

// Trash moves the given messages to trash.
func Trash(ctx context.Context, svc *gmailv1.Service, messageIDs []string) error {
	for _, id := range messageIDs {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if _, err := svc.Users.Messages.Trash(user, id).Context(ctx).Do(); err != nil {
			return fmt.Errorf("trash message %s: %w", id, wrapAPIError(err))
		}
	}
	return nil
}

func modifyLabels(ctx context.Context, svc *gmailv1.Service, id string, add, remove []string) error {
	req := &gmailv1.ModifyMessageRequest{
		AddLabelIds:    add,
		RemoveLabelIds: remove,
	}
	if _, err := svc.Users.Messages.Modify(user, id, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("modify labels on %s: %w", id, wrapAPIError(err))
	}
	return nil
}
