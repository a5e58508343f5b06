package mail

import "github.com/xavierca1/immo-leads/internal/entity"

type LeadEmailData struct {
	Lead     entity.Lead
	FullName string
}

type EmailSender struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	To       string

	dialer Dialer
}
