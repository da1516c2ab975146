package services

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

//go:embed templates/*.html
var templatesFS embed.FS

var emailTemplates = template.Must(template.ParseFS(templatesFS, "templates/*.html"))

// Mailer envoie un email HTML
type Mailer interface {
	Send(to, subject, html string) error
}

// EmailService envoie les emails via SMTP
type EmailService struct {
	dialer *gomail.Dialer
	from   string
	logger *zap.SugaredLogger
}

// NewEmailService crée une nouvelle instance de EmailService
func NewEmailService(host string, port int, user, password, from string, logger *zap.SugaredLogger) *EmailService {
	return &EmailService{
		dialer: gomail.NewDialer(host, port, user, password),
		from:   from,
		logger: logger,
	}
}

// Send envoie l'email
func (s *EmailService) Send(to, subject, html string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", html)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("erreur lors de l'envoi de l'email à %s: %w", to, err)
	}
	s.logger.Infow("✓ Email envoyé", "to", to, "subject", subject)
	return nil
}

// DisabledMailer est utilisé quand SMTP n'est pas configuré
type DisabledMailer struct {
	logger *zap.SugaredLogger
}

// NewDisabledMailer crée un mailer qui journalise sans envoyer
func NewDisabledMailer(logger *zap.SugaredLogger) *DisabledMailer {
	logger.Warn("⚠️  SMTP non configuré - emails désactivés")
	return &DisabledMailer{logger: logger}
}

// Send journalise l'email non envoyé
func (m *DisabledMailer) Send(to, subject, _ string) error {
	m.logger.Infow("Email non envoyé (SMTP désactivé)", "to", to, "subject", subject)
	return nil
}

// ReponseDevisEmail contient les données du modèle d'email de réponse à un devis
type ReponseDevisEmail struct {
	Nom        string
	Prenom     string
	Annonce    string
	Montant    string
	Devise     string
	IBAN       string
	BIC        string
	Message    string
	ContratURL string
}

// RenderReponseDevis produit le sujet et le corps HTML dans la langue demandée (fr par défaut)
func RenderReponseDevis(langue string, data ReponseDevisEmail) (string, string, error) {
	name, subject := "reponse_devis_fr.html", "Votre devis pour "+data.Annonce
	if langue == "en" {
		name, subject = "reponse_devis_en.html", "Your quote for "+data.Annonce
	}

	var buf bytes.Buffer
	if err := emailTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", "", fmt.Errorf("erreur lors du rendu de l'email: %w", err)
	}
	return subject, buf.String(), nil
}
