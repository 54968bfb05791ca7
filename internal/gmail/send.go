package gmail

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	gmailv1 "google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"

	"mailpane/internal/codec"
	"mailpane/internal/model"
)

// ErrReauthRequired means the API rejected the credential for lack of
// permission; the caller should clear the cached token and run the auth
// flow again. Detection uses the structured googleapi status code, not the
// human-readable error text.
var ErrReauthRequired = errors.New("gmail authorization no longer valid; re-authentication required")

// SendNew composes and sends a fresh message. The only composition error
// that can surface is codec.ErrInvalidRecipient.
func SendNew(ctx context.Context, svc *gmailv1.Service, msg model.NewMessage) (model.Email, error) {
	composed, err := codec.ComposeNew(msg)
	if err != nil {
		return model.Email{}, err
	}
	return send(ctx, svc, composed)
}

// SendReply fetches the original message, composes a threaded reply
// against it, and sends it on the original's thread. A missing original is
// tolerated: threading headers are synthesized from the request's ids.
func SendReply(ctx context.Context, svc *gmailv1.Service, userAddr string, req model.ReplyRequest) (model.Email, error) {
	var original *gmailv1.Message
	if req.EmailID != "" {
		if msg, err := svc.Users.Messages.Get(user, req.EmailID).Format("full").Context(ctx).Do(); err == nil {
			original = msg
		}
	}

	composed, err := codec.ComposeReply(original, userAddr, req)
	if err != nil {
		return model.Email{}, err
	}
	return send(ctx, svc, composed)
}

func send(ctx context.Context, svc *gmailv1.Service, composed model.ComposedMessage) (model.Email, error) {
	out := &gmailv1.Message{
		Raw:      composed.Raw,
		ThreadId: composed.ThreadID,
	}
	sent, err := svc.Users.Messages.Send(user, out).Context(ctx).Do()
	if err != nil {
		return model.Email{}, fmt.Errorf("send message: %w", wrapAPIError(err))
	}
	return codec.Decode(sent), nil
}

// wrapAPIError maps permission failures onto ErrReauthRequired so callers
// can errors.Is on it instead of matching provider error strings.
func wrapAPIError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden {
			return fmt.Errorf("%w: %v", ErrReauthRequired, err)
		}
	}
	return err
}
