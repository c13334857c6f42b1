// Package mail implements the Mail Dispatcher: fire-and-forget delivery
// of verification links keyed by an unguessable token. Delivery failures
// are logged and swallowed rather than failing the caller.
package mail

import (
	"fmt"

	gomail "gopkg.in/gomail.v2"
)

// Sender is the interface the Identity Service depends on, so tests can
// substitute a no-op or recording double without dialing SMTP.
type Sender interface {
	SendVerification(to, key string)
}

// Config carries the MAIL_* / URL_* environment variables.
type Config struct {
	Host    string
	Port    int
	User    string
	Pass    string
	URLHost string
	URLPort string
	From    string
}

// Dispatcher sends verification emails. SendVerification blocks until the
// SMTP exchange finishes, so callers invoke it from a detached goroutine;
// its failure never fails the caller's operation.
type Dispatcher struct {
	cfg   Config
	dial  *gomail.Dialer
	onErr func(err error)
}

// NewDispatcher builds a Dispatcher bound to cfg. onErr receives any send
// failure for logging; it may be nil.
func NewDispatcher(cfg Config, onErr func(error)) *Dispatcher {
	if cfg.From == "" {
		cfg.From = cfg.User
	}
	if onErr == nil {
		onErr = func(error) {}
	}
	return &Dispatcher{
		cfg:   cfg,
		dial:  gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Pass),
		onErr: onErr,
	}
}

// SendVerification emails the verification link built from the
// configured URL_HOST/URL_PORT and the given key. Any failure is reported
// to onErr and never returned. The call itself is synchronous; callers
// that need fire-and-forget semantics run it in a goroutine.
func (d *Dispatcher) SendVerification(to, key string) {
	link := fmt.Sprintf("http://%s:%s/auth/verify?key=%s", d.cfg.URLHost, d.cfg.URLPort, key)

	msg := gomail.NewMessage()
	msg.SetHeader("From", d.cfg.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "Verify your account")
	msg.SetBody("text/plain", "Click to verify your account: "+link)

	if err := d.dial.DialAndSend(msg); err != nil {
		d.onErr(err)
	}
}
