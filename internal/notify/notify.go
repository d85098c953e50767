// Package notify mails import summaries to the back office. It subscribes
// to the event bus so the sync engine stays unaware of reporting.
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/wneessen/go-mail"

	"catalog_sync_backend/internal/events"
	"catalog_sync_backend/platform/logger"
)

// SMTPConfig carries the mail server settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       []string
}

// Reporter sends import summary mails.
type Reporter struct {
	cfg SMTPConfig
	log *logger.Logger

	// send is swapped out in tests.
	send func(ctx context.Context, msg *mail.Msg) error
}

// NewReporter creates a reporter for the given SMTP settings.
func NewReporter(cfg SMTPConfig, log *logger.Logger) *Reporter {
	r := &Reporter{cfg: cfg, log: log}
	r.send = r.deliver
	return r
}

// Subscribe attaches the reporter to the event bus.
func (r *Reporter) Subscribe(bus events.Bus) {
	bus.Subscribe(events.EventImportCompleted, events.HandlerFunc(r.handleImportCompleted))
}

func (r *Reporter) handleImportCompleted(ctx context.Context, event events.Event) error {
	completed, ok := event.(events.ImportCompleted)
	if !ok {
		return nil
	}
	// Previews are not worth a mail.
	if completed.Status == "dry_run" {
		return nil
	}

	msg, err := r.buildMessage(completed)
	if err != nil {
		return err
	}
	if err := r.send(ctx, msg); err != nil {
		r.log.Error("import summary mail failed", "batch_id", completed.BatchID, "error", err.Error())
		return err
	}
	r.log.Info("import summary mail sent", "batch_id", completed.BatchID, "recipients", len(r.cfg.To))
	return nil
}

func (r *Reporter) buildMessage(completed events.ImportCompleted) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(r.cfg.From); err != nil {
		return nil, err
	}
	if err := msg.To(r.cfg.To...); err != nil {
		return nil, err
	}

	msg.Subject(fmt.Sprintf("Prisimport %s: %s", completed.SupplierCode, completed.Status))
	msg.SetBodyString(mail.TypeTextPlain, summaryBody(completed))
	return msg, nil
}

func summaryBody(c events.ImportCompleted) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Import %s for leverandør %s: %s\n\n", c.BatchID, c.SupplierCode, c.Status)
	if c.SourceFile != "" {
		fmt.Fprintf(&b, "Fil: %s\n", c.SourceFile)
	}
	fmt.Fprintf(&b, "Rækker i alt: %d\n", c.TotalRows)
	fmt.Fprintf(&b, "Nye produkter: %d\n", c.NewProducts)
	fmt.Fprintf(&b, "Opdaterede produkter: %d\n", c.UpdatedProducts)
	fmt.Fprintf(&b, "Afviste rækker: %d\n", c.SkippedRows)
	if c.PriceChanges > 0 {
		fmt.Fprintf(&b, "Prisændringer: %d\n", c.PriceChanges)
	}
	return b.String()
}

func (r *Reporter) deliver(ctx context.Context, msg *mail.Msg) error {
	client, err := mail.NewClient(r.cfg.Host,
		mail.WithPort(r.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(r.cfg.Username),
		mail.WithPassword(r.cfg.Password),
	)
	if err != nil {
		return err
	}
	return client.DialAndSendWithContext(ctx, msg)
}
