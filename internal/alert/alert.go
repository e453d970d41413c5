package alert

import (
	"fmt"
	"log"
	"net/smtp"
	"os"
)

// Notifier reports settlement faults out-of-band. The webhook response to
// the processor stays 200 regardless, so this is the only channel on which
// a failed transfer surfaces.
type Notifier struct {
	from     string
	password string
	host     string
	port     string
	to       string
}

func NewNotifierFromEnv() *Notifier {
	return &Notifier{
		from:     os.Getenv("SMTP_FROM"),
		password: os.Getenv("SMTP_PASSWORD"),
		host:     os.Getenv("SMTP_HOST"),
		port:     os.Getenv("SMTP_PORT"),
		to:       os.Getenv("ALERT_EMAIL"),
	}
}

// Notify emails the alert address, falling back to the process log when
// SMTP is not configured.
func (n *Notifier) Notify(subject, body string) {
	if n.host == "" || n.to == "" {
		log.Printf("ALERT %s: %s", subject, body)
		return
	}

	auth := smtp.PlainAuth("", n.from, n.password, n.host)
	message := []byte("Subject: " + subject + "\r\n" +
		"From: " + n.from + "\r\n" +
		"To: " + n.to + "\r\n" +
		"Content-Type: text/plain; charset=UTF-8\r\n" +
		"\r\n" +
		body + "\r\n")

	if err := smtp.SendMail(n.host+":"+n.port, auth, n.from, []string{n.to}, message); err != nil {
		fmt.Println("❌ SMTP error:", err)
		log.Printf("ALERT %s: %s", subject, body)
	}
}
