// Package mailer sends templated emails through a transport chosen at boot:
// a console transport that renders messages into the structured log (for
// local and dev environments) or a real SMTP transport. Choosing the
// transport validates connection parameters only; credential correctness is
// discovered on the first actual send.
package mailer

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"time"

	"github.com/newslyhq/newsly/config"
	"github.com/newslyhq/newsly/internal/jsonlog"
	"github.com/newslyhq/newsly/internal/validator"
	"golang.org/x/time/rate"
	"gopkg.in/mail.v2"
)

//go:embed "templates"
var templateFS embed.FS

// Transport sends one templated email. templateFile names a file in the
// embedded templates directory defining "subject", "plainBody" and
// "htmlBody" templates.
type Transport interface {
	Send(recipient, templateFile string, data interface{}) error
}

// Resolve chooses the mail transport from configuration. The smtp backend
// requires EMAIL_HOST and EMAIL_PORT to be set; missing ones are reported
// together in a single *config.Error.
func Resolve(cfg config.Config, logger *jsonlog.Logger) (Transport, error) {
	if cfg.Email.Backend == config.MailBackendConsole {
		return NewConsole(logger, cfg.Email.Sender), nil
	}

	v := validator.New()
	v.Check(cfg.Email.Host != "", "EMAIL_HOST", "must be set when the smtp mail backend is selected")
	v.Check(cfg.Email.Port != 0, "EMAIL_PORT", "must be set when the smtp mail backend is selected")
	if !v.Valid() {
		return nil, &config.Error{Errors: v.Errors}
	}
	return NewSMTP(cfg.Email.Host, cfg.Email.Port, cfg.Email.Username, cfg.Email.Password, cfg.Email.Sender, cfg.Email.UseTLS), nil
}

type message struct {
	subject   string
	plainBody string
	htmlBody  string
}

func render(templateFile string, data interface{}) (*message, error) {
	tmpl, err := template.New("email").ParseFS(templateFS, "templates/"+templateFile)
	if err != nil {
		return nil, err
	}
	var msg message
	for _, part := range []struct {
		name string
		dst  *string
	}{
		{name: "subject", dst: &msg.subject},
		{name: "plainBody", dst: &msg.plainBody},
		{name: "htmlBody", dst: &msg.htmlBody},
	} {
		buf := new(bytes.Buffer)
		if err := tmpl.ExecuteTemplate(buf, part.name, data); err != nil {
			return nil, err
		}
		*part.dst = buf.String()
	}
	return &msg, nil
}

// SMTP delivers mail through a real SMTP server. Sends are paced with a
// limiter so a burst of background sends doesn't trip provider throttles,
// and each send is attempted up to three times.
type SMTP struct {
	dialer  *mail.Dialer
	sender  string
	limiter *rate.Limiter
}

// NewSMTP initializes an SMTP transport with a 5-second dial timeout.
func NewSMTP(host string, port int, username, password, sender string, useTLS bool) *SMTP {
	dialer := mail.NewDialer(host, port, username, password)
	dialer.Timeout = 5 * time.Second
	if useTLS {
		dialer.StartTLSPolicy = mail.MandatoryStartTLS
	}
	return &SMTP{
		dialer:  dialer,
		sender:  sender,
		limiter: rate.NewLimiter(rate.Every(time.Second), 3),
	}
}

func (t *SMTP) Send(recipient, templateFile string, data interface{}) error {
	rendered, err := render(templateFile, data)
	if err != nil {
		return err
	}
	msg := mail.NewMessage()
	msg.SetHeader("To", recipient)
	msg.SetHeader("From", t.sender)
	msg.SetHeader("Subject", rendered.subject)
	msg.SetBody("text/plain", rendered.plainBody)
	msg.AddAlternative("text/html", rendered.htmlBody)

	if err := t.limiter.Wait(context.Background()); err != nil {
		return err
	}
	for i := 1; i <= 3; i++ {
		err = t.dialer.DialAndSend(msg)
		if err == nil {
			return nil
		}
		time.Sleep(1000 * time.Millisecond)
	}
	return err
}

// Console renders messages into the structured log instead of sending them.
// It never performs network I/O.
type Console struct {
	logger *jsonlog.Logger
	sender string
}

// NewConsole initializes a console transport writing to the given logger.
func NewConsole(logger *jsonlog.Logger, sender string) *Console {
	return &Console{logger: logger, sender: sender}
}

func (t *Console) Send(recipient, templateFile string, data interface{}) error {
	rendered, err := render(templateFile, data)
	if err != nil {
		return err
	}
	t.logger.PrintInfo("email delivered to console backend", map[string]string{
		"to":      recipient,
		"from":    t.sender,
		"subject": rendered.subject,
		"body":    rendered.plainBody,
	})
	return nil
}
