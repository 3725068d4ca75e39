// Package notify delivers reservation confirmations. Delivery is
// best-effort by contract: a send failure is reported to the caller for
// response metadata but never blocks or reverses the reservation.
package notify

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strings"

	"github.com/ublc/libchat/core"
	"github.com/ublc/libchat/logging"
)

// LogSender implements core.Notifier by logging the confirmation instead of
// delivering it. Used in development and as the default when no SMTP server
// is configured.
type LogSender struct {
	logger logging.Logger
}

// NewLogSender creates a log-only notifier.
func NewLogSender(logger logging.Logger) *LogSender {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &LogSender{logger: logger}
}

// SendConfirmation logs the confirmation and reports success.
func (s *LogSender) SendConfirmation(_ context.Context, r core.Reservation, b core.Book) error {
	s.logger.Info("confirmation email (log only)",
		"to", r.Student.Email,
		"reservation_id", r.ID,
		"book_title", b.Title,
		"pickup_by", r.PickupBy())
	return nil
}

// SMTPSender implements core.Notifier over a plain SMTP server.
type SMTPSender struct {
	addr     string // host:port
	username string
	password string
	from     string
}

// NewSMTPSender creates an SMTP notifier. username may be empty for servers
// that accept unauthenticated relay (e.g. a local postfix).
func NewSMTPSender(addr, username, password, from string) *SMTPSender {
	return &SMTPSender{addr: addr, username: username, password: password, from: from}
}

// SendConfirmation delivers the confirmation email. The connection is
// established with the context's deadline so a slow server cannot hold a
// turn past the notify timeout.
func (s *SMTPSender) SendConfirmation(ctx context.Context, r core.Reservation, b core.Book) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", s.addr)
	if err != nil {
		return fmt.Errorf("dial smtp %s: %w", s.addr, err)
	}

	host := s.addr
	if h, _, splitErr := net.SplitHostPort(s.addr); splitErr == nil {
		host = h
	}

	c, err := smtp.NewClient(conn, host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer c.Close()

	if s.username != "" {
		if err := c.Auth(smtp.PlainAuth("", s.username, s.password, host)); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}

	if err := c.Mail(s.from); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	if err := c.Rcpt(r.Student.Email); err != nil {
		return fmt.Errorf("smtp rcpt to: %w", err)
	}

	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := w.Write([]byte(confirmationMessage(s.from, r, b))); err != nil {
		w.Close()
		return fmt.Errorf("smtp write body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp close body: %w", err)
	}
	return c.Quit()
}

// confirmationMessage renders the full RFC 5322 message for a reservation.
func confirmationMessage(from string, r core.Reservation, b core.Book) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "From: UBLC Library <%s>\r\n", from)
	fmt.Fprintf(&sb, "To: %s\r\n", r.Student.Email)
	fmt.Fprintf(&sb, "Subject: Book Reservation Confirmed - %s\r\n", r.ID)
	sb.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n")

	fmt.Fprintf(&sb, "Dear %s,\r\n\r\n", r.Student.Name)
	sb.WriteString("Your book reservation has been confirmed!\r\n\r\n")
	fmt.Fprintf(&sb, "Reservation ID: %s\r\n", r.ID)
	fmt.Fprintf(&sb, "Book: %s\r\n", b.Title)
	fmt.Fprintf(&sb, "Author: %s\r\n", b.Author)
	fmt.Fprintf(&sb, "Location: %s\r\n", b.Location)
	fmt.Fprintf(&sb, "Student ID: %s\r\n\r\n", r.Student.StudentID)
	fmt.Fprintf(&sb, "Please pick up your book at the front desk by %s.\r\n",
		r.PickupBy().Format("Monday, January 2, 2006 3:04 PM"))
	sb.WriteString("Bring your student ID when you come.\r\n\r\n")
	sb.WriteString("Thank you,\r\nUniversity Book Library Center\r\n")
	return sb.String()
}
