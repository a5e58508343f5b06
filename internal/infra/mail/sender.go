package mail

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"

	"github.com/xavierca1/immo-leads/internal/entity"
	"gopkg.in/gomail.v2"
)

// Dialer is satisfied by *gomail.Dialer.
type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

var leadTemplate = template.Must(template.New("lead").Parse(`<h2>Nouveau contact : {{.FullName}}</h2>
<ul>
  <li>Projet : {{.Lead.ProjectType}}</li>
  <li>Bien : {{.Lead.PropertyType}}</li>
  <li>Localisation : {{.Lead.Location}}</li>
  <li>Surface : {{.Lead.Surface}} m²</li>
  <li>Délai : {{.Lead.Timeline}}</li>
  <li>Email : {{.Lead.Email}}</li>
  <li>Téléphone : {{.Lead.Phone}}</li>
  <li>Source : {{.Lead.SourceRef}} ({{.Lead.SourceRegion}})</li>
</ul>
<p>{{.Lead.Description}}</p>
`))

func NewEmailSender(host string, port int, user, password, from, to string) *EmailSender {
	return &EmailSender{
		Host:     host,
		Port:     port,
		User:     user,
		Password: password,
		From:     from,
		To:       to,
		dialer:   gomail.NewDialer(host, port, user, password),
	}
}

// WithDialer replaces the SMTP dialer, mainly for tests.
func (s *EmailSender) WithDialer(d Dialer) *EmailSender {
	s.dialer = d
	return s
}

// NotifyLead e-mails the lead to the agency inbox.
func (s *EmailSender) NotifyLead(ctx context.Context, lead entity.Lead) error {
	if s.To == "" {
		return errors.New("mail: no recipient configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m, err := s.buildMessage(lead)
	if err != nil {
		return err
	}

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("mail: send lead notification: %w", err)
	}
	return nil
}

func (s *EmailSender) buildMessage(lead entity.Lead) (*gomail.Message, error) {
	var body bytes.Buffer
	data := LeadEmailData{Lead: lead, FullName: lead.FullName()}
	if err := leadTemplate.Execute(&body, data); err != nil {
		return nil, fmt.Errorf("mail: render template: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", s.To)
	m.SetHeader("Reply-To", lead.Email)
	m.SetHeader("Subject", fmt.Sprintf("Nouveau lead %s - %s", lead.ProjectType, lead.FullName()))
	m.SetBody("text/html", body.String())
	return m, nil
}
