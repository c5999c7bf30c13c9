// Package contact builds the outbound dial and WhatsApp deep links used by
// the site, with the prefilled messages each page sends.
package contact

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	DefaultPhone    = "+22997775522"
	DefaultWhatsApp = "22997775522"
)

// Links holds the configured numbers. Zero values fall back to the defaults.
type Links struct {
	Phone          string
	WhatsAppNumber string
}

func (l Links) phone() string {
	if l.Phone == "" {
		return DefaultPhone
	}
	return l.Phone
}

func (l Links) whatsApp() string {
	if l.WhatsAppNumber == "" {
		return DefaultWhatsApp
	}
	return l.WhatsAppNumber
}

// Dial returns the tel: link for the pharmacy phone.
func (l Links) Dial() string {
	return "tel:" + strings.ReplaceAll(l.phone(), " ", "")
}

// WhatsApp returns the chat link, with the message prefilled when non-empty.
func (l Links) WhatsApp(message string) string {
	u := "https://wa.me/" + l.whatsApp()
	if message == "" {
		return u
	}
	return u + "?text=" + EncodeURIComponent(message)
}

// EncodeURIComponent escapes s the way browsers do for a query value:
// spaces become %20, not '+'.
func EncodeURIComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

type ContactForm struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

func ContactFormMessage(f ContactForm) string {
	return fmt.Sprintf(`Bonjour, je vous contacte depuis votre site web.

Nom: %s
Email: %s
Téléphone: %s
Sujet: %s

Message: %s`, f.Name, f.Email, f.Phone, f.Subject, f.Message)
}

func ProductRequestMessage(productName string) string {
	return fmt.Sprintf("Bonjour, je suis intéressé(e) par le produit : %s. Pouvez-vous me donner plus d'informations sur sa disponibilité et son prix ?", productName)
}

func PrescriptionOrderMessage(prescriptionID string) string {
	return fmt.Sprintf("Bonjour, je souhaite commander les médicaments de mon ordonnance validée (ID: %s). Pouvez-vous me confirmer la disponibilité et le prix total ?", prescriptionID)
}
