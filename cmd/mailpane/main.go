package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"

	"go.uber.org/zap"
	gmailv1 "google.golang.org/api/gmail/v1"

	"mailpane/internal/codec"
	"mailpane/internal/config"
	"mailpane/internal/gmail"
	"mailpane/internal/model"
	"mailpane/internal/store"
	"mailpane/internal/util"
)

const usage = `mailpane: Gmail client

Usage:
  mailpane sync                 mirror recent INBOX messages locally
  mailpane list [-n N]          list cached messages (newest first)
  mailpane show <id>            print one message (fetches if not cached)
  mailpane send -to ... -subject ... [-cc ...] [-bcc ...] [-html] [body on stdin or -body]
  mailpane reply <id> -body ... reply on the message's thread
  mailpane read|unread <id>     toggle the unread flag
  mailpane star|unstar <id>     toggle the star
  mailpane trash <id>...        move messages to trash
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1], os.Args[2:]); err != nil {
		if errors.Is(err, gmail.ErrReauthRequired) {
			fmt.Fprintln(os.Stderr, "Authorization expired. Run any command again to re-authenticate.")
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type app struct {
	cfg    config.Config
	logger *zap.Logger
	db     *store.SQLiteStore
	svc    *gmailv1.Service
}

func run(ctx context.Context, command string, args []string) error {
	configDir, err := config.Dir()
	if err != nil {
		return err
	}
	cfg, err := config.Load(configDir)
	if err != nil {
		return err
	}

	logger, err := util.NewLogger(configDir, cfg.Verbose)
	if err != nil {
		return err
	}
	defer logger.Sync()

	db, err := store.NewSQLiteStore(filepath.Join(configDir, "mailpane.db"))
	if err != nil {
		return err
	}
	defer db.Close()

	a := &app{cfg: cfg, logger: logger, db: db}

	// list works fully offline; everything else needs the API.
	if command != "list" {
		svc, err := gmail.NewService(ctx, configDir)
		if err != nil {
			return err
		}
		a.svc = svc
	}

	switch command {
	case "sync":
		return a.sync(ctx)
	case "list":
		return a.list(ctx, args)
	case "show":
		return a.show(ctx, args)
	case "send":
		return a.send(ctx, args)
	case "reply":
		return a.reply(ctx, args)
	case "read", "unread", "star", "unstar":
		return a.toggle(ctx, command, args)
	case "trash":
		return a.trash(ctx, args)
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

func (a *app) sync(ctx context.Context) error {
	if err := gmail.SyncInbox(ctx, a.svc, a.db, a.logger, a.cfg.SyncWindow, a.cfg.IncludeSpamTrash); err != nil {
		return err
	}
	count, err := a.db.CountEmails(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Synced. %d messages cached.\n", count)
	return nil
}

func (a *app) list(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	n := fs.Int("n", 30, "number of messages to show")
	if err := fs.Parse(args); err != nil {
		return err
	}

	emails, err := a.db.ListEmails(ctx, *n)
	if err != nil {
		return err
	}
	if len(emails) == 0 {
		fmt.Println("No cached messages. Run `mailpane sync` first.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, e := range emails {
		marker := " "
		if e.Flags.Unread {
			marker = "*"
		}
		star := " "
		if e.Flags.Starred {
			star = "★"
		}
		fmt.Fprintf(w, "%s%s\t%s\t%s\t%s\t%s\n",
			marker, star, e.ID, e.Date.Local().Format("Jan 02 15:04"), e.From.Name, e.Subject)
	}
	return w.Flush()
}

func (a *app) show(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return errors.New("show: message id required")
	}
	id := args[0]

	email, ok, err := a.db.GetEmail(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		email, err = gmail.FetchMessage(ctx, a.svc, id)
		if err != nil {
			return err
		}
	}

	fmt.Printf("From:    %s\n", email.From)
	fmt.Printf("To:      %s\n", joinAddrs(email.To))
	if len(email.Cc) > 0 {
		fmt.Printf("Cc:      %s\n", joinAddrs(email.Cc))
	}
	fmt.Printf("Date:    %s\n", email.Date.Local().Format("Mon, 2 Jan 2006 15:04"))
	fmt.Printf("Subject: %s\n\n", email.Subject)
	fmt.Println(codec.RenderText(email))
	if len(email.Attachments) > 0 {
		fmt.Println()
		for _, att := range email.Attachments {
			fmt.Printf("[attachment] %s (%s, %d bytes)\n", att.Filename, att.MimeType, att.Size)
		}
	}
	return nil
}

func (a *app) send(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("send", flag.ContinueOnError)
	to := fs.String("to", "", "recipient address(es), comma separated")
	cc := fs.String("cc", "", "cc address(es)")
	bcc := fs.String("bcc", "", "bcc address(es)")
	subject := fs.String("subject", "", "message subject")
	body := fs.String("body", "", "message body (reads stdin when empty)")
	html := fs.Bool("html", false, "send body as text/html")
	if err := fs.Parse(args); err != nil {
		return err
	}

	content := *body
	if content == "" {
		b, err := readStdin()
		if err != nil {
			return err
		}
		content = b
	}

	from, err := gmail.UserAddress(ctx, a.svc)
	if err != nil {
		return err
	}

	sent, err := gmail.SendNew(ctx, a.svc, model.NewMessage{
		From:    from,
		To:      *to,
		Cc:      *cc,
		Bcc:     *bcc,
		Subject: *subject,
		Body:    content,
		IsHTML:  *html,
	})
	if err != nil {
		if errors.Is(err, codec.ErrInvalidRecipient) {
			return fmt.Errorf("refusing to send: %w", err)
		}
		return err
	}
	a.logger.Info("message sent", zap.String("id", sent.ID), zap.String("thread", sent.ThreadID))
	fmt.Printf("Sent. Message id %s\n", sent.ID)
	return nil
}

func (a *app) reply(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return errors.New("reply: message id required")
	}
	id := args[0]

	fs := flag.NewFlagSet("reply", flag.ContinueOnError)
	body := fs.String("body", "", "reply content (reads stdin when empty)")
	to := fs.String("to", "", "override recipient (defaults to the original sender)")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	content := *body
	if content == "" {
		b, err := readStdin()
		if err != nil {
			return err
		}
		content = b
	}

	original, err := gmail.FetchMessage(ctx, a.svc, id)
	if err != nil {
		return err
	}
	recipient := *to
	if recipient == "" {
		recipient = original.From.Email
	}

	from, err := gmail.UserAddress(ctx, a.svc)
	if err != nil {
		return err
	}

	sent, err := gmail.SendReply(ctx, a.svc, from, model.ReplyRequest{
		EmailID:  id,
		ThreadID: original.ThreadID,
		Content:  content,
		To:       recipient,
	})
	if err != nil {
		if errors.Is(err, codec.ErrInvalidRecipient) {
			return fmt.Errorf("refusing to send: %w", err)
		}
		return err
	}
	a.logger.Info("reply sent", zap.String("id", sent.ID), zap.String("thread", sent.ThreadID))
	fmt.Printf("Replied on thread %s. Message id %s\n", sent.ThreadID, sent.ID)
	return nil
}

func (a *app) toggle(ctx context.Context, command string, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("%s: message id required", command)
	}
	id := args[0]

	var err error
	switch command {
	case "read":
		err = gmail.MarkRead(ctx, a.svc, id)
	case "unread":
		err = gmail.MarkUnread(ctx, a.svc, id)
	case "star":
		err = gmail.Star(ctx, a.svc, id)
	case "unstar":
		err = gmail.Unstar(ctx, a.svc, id)
	}
	if err != nil {
		return err
	}

	// Refresh the cached copy so list reflects the new flags.
	if email, ferr := gmail.FetchMessage(ctx, a.svc, id); ferr == nil {
		if uerr := a.db.UpsertEmails(ctx, []model.Email{email}); uerr != nil {
			a.logger.Warn("cache refresh failed", zap.String("id", id), zap.Error(uerr))
		}
	}
	return nil
}

func (a *app) trash(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return errors.New("trash: at least one message id required")
	}
	if err := gmail.Trash(ctx, a.svc, args); err != nil {
		return err
	}
	if err := a.db.DeleteEmails(ctx, args); err != nil {
		a.logger.Warn("cache eviction failed", zap.Error(err))
	}
	fmt.Printf("Trashed %d message(s).\n", len(args))
	return nil
}

func joinAddrs(addrs []model.Address) string {
	out := ""
	for i, addr := range addrs {
		if i > 0 {
			out += ", "
		}
		out += addr.String()
	}
	return out
}

func readStdin() (string, error) {
	b, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("read body from stdin: %w", err)
	}
	return string(b), nil
}
