package contact

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDialFallsBackToDefault(t *testing.T) {
	assert.Equal(t, "tel:+22997775522", Links{}.Dial())
	assert.Equal(t, "tel:+22990112233", Links{Phone: "+229 90 11 22 33"}.Dial())
}

func TestWhatsAppEncodesLikeBrowser(t *testing.T) {
	link := Links{}.WhatsApp("Bonjour, prix & dispo ?")
	assert.Equal(t, "https://wa.me/22997775522?text=Bonjour%2C%20prix%20%26%20dispo%20%3F", link)
}

func TestWhatsAppWithoutMessage(t *testing.T) {
	assert.Equal(t, "https://wa.me/22990000000", Links{WhatsAppNumber: "22990000000"}.WhatsApp(""))
}

func TestPrefilledMessages(t *testing.T) {
	assert.Contains(t, ProductRequestMessage("Paracétamol 500mg"), "produit : Paracétamol 500mg.")
	assert.Contains(t, PrescriptionOrderMessage("abc"), "(ID: abc)")

	msg := ContactFormMessage(ContactForm{Name: "Marie", Email: "m@x.bj", Subject: "Devis", Message: "Bonjour"})
	assert.True(t, strings.HasPrefix(msg, "Bonjour, je vous contacte depuis votre site web."))
	assert.Contains(t, msg, "Nom: Marie")
	assert.Contains(t, msg, "Message: Bonjour")
}
