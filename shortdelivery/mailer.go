package shortdelivery

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"net/smtp"
)

// Mail - one outbound notification with an optional PDF attachment
type Mail struct {
	To             []string
	Subject        string
	Body           string
	AttachmentName string
	Attachment     []byte
}

// Mailer - the delivery mechanism boundary. The debouncer only builds
// the mail; how it leaves the system is an implementation concern.
type Mailer interface {
	Send(ctx context.Context, m Mail) error
}

// SMTPConf - plain SMTP relay settings
type SMTPConf struct {
	Host string `json:"host"`
	Port int    `json:"port"`
	User string `json:"user"`
	PW   string `json:"pw"`
	From string `json:"from"`
}

// SMTPMailer sends via net/smtp with a hand-built MIME multipart body
type SMTPMailer struct {
	Conf *SMTPConf
}

// Ensure SMTPMailer implements Mailer interface
var _ Mailer = (*SMTPMailer)(nil)

func (m *SMTPMailer) Send(_ context.Context, mail Mail) error {
	addr := fmt.Sprintf("%s:%d", m.Conf.Host, m.Conf.Port)
	var auth smtp.Auth
	if m.Conf.User != "" {
		auth = smtp.PlainAuth("", m.Conf.User, m.Conf.PW, m.Conf.Host)
	}
	return smtp.SendMail(addr, auth, m.Conf.From, mail.To, buildMIME(m.Conf.From, mail))
}

const mimeBoundary = "=_orderdocs_attachment"

func buildMIME(from string, mail Mail) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", from)
	for _, to := range mail.To {
		fmt.Fprintf(&buf, "To: %s\r\n", to)
	}
	fmt.Fprintf(&buf, "Subject: %s\r\n", mail.Subject)
	buf.WriteString("MIME-Version: 1.0\r\n")
	if len(mail.Attachment) == 0 {
		buf.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
		buf.WriteString(mail.Body)
		return buf.Bytes()
	}
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", mimeBoundary)
	fmt.Fprintf(&buf, "--%s\r\n", mimeBoundary)
	buf.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	buf.WriteString(mail.Body)
	fmt.Fprintf(&buf, "\r\n--%s\r\n", mimeBoundary)
	buf.WriteString("Content-Type: application/pdf\r\n")
	buf.WriteString("Content-Transfer-Encoding: base64\r\n")
	fmt.Fprintf(&buf, "Content-Disposition: attachment; filename=%q\r\n\r\n", mail.AttachmentName)
	enc := base64.StdEncoding.EncodeToString(mail.Attachment)
	// RFC 2045 line length limit
	for len(enc) > 76 {
		buf.WriteString(enc[:76])
		buf.WriteString("\r\n")
		enc = enc[76:]
	}
	buf.WriteString(enc)
	fmt.Fprintf(&buf, "\r\n--%s--\r\n", mimeBoundary)
	return buf.Bytes()
}
