package entity

import (
	"context"
)

type ProjectType string

const (
	ProjectSell ProjectType = "Vendre"
	ProjectBuy  ProjectType = "Acheter"
)

type PropertyType string

const (
	PropertyHouse     PropertyType = "Maison"
	PropertyApartment PropertyType = "Appartement"
)

type Timeline string

const (
	TimelineUnder3Months Timeline = "Moins de 3 mois"
	TimelineWithin6Month Timeline = "D'ici 6 mois"
	TimelineEstimateOnly Timeline = "Simple estimation"
)

// Lead is the sanitized questionnaire submission. The JSON keys are the ones
// the front end sends and the automation scenario expects.
type Lead struct {
	Date         string       `json:"Date"`
	SourceRef    string       `json:"source_ref"`
	SourceRegion string       `json:"source_region"`
	ProjectType  ProjectType  `json:"projet_type"`
	PropertyType PropertyType `json:"bien_type"`
	Location     string       `json:"bien_localisation"`
	Surface      string       `json:"bien_surface"`
	Description  string       `json:"bien_description"`
	Timeline     Timeline     `json:"projet_delai"`
	LastName     string       `json:"contact_nom"`
	FirstName    string       `json:"contact_prenom"`
	Email        string       `json:"contact_email"`
	Phone        string       `json:"contact_tel"`
}

// FullName is used in notifications and logs.
func (l Lead) FullName() string {
	switch {
	case l.FirstName == "":
		return l.LastName
	case l.LastName == "":
		return l.FirstName
	}
	return l.FirstName + " " + l.LastName
}

// LeadSink receives a finalized lead. The response body of the sink is
// returned decoded: JSON when possible, otherwise {"message": text}.
type LeadSink interface {
	Forward(ctx context.Context, url string, lead Lead) (any, error)
}

// LeadNotifier is told about leads that reached the sink.
type LeadNotifier interface {
	NotifyLead(ctx context.Context, lead Lead) error
}
