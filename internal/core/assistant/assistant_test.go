package assistant

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmaciedusoleil/portal/internal/core/contact"
	"github.com/pharmaciedusoleil/portal/internal/models"
)

// Monday 15 January 2024.
var monday10 = time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)

func newAssistant() *Assistant {
	return New(NewMatcher(DefaultRules()), &Responder{
		Info:  models.PharmacyInfo{Name: "Pharmacie du Soleil", Phone: "+229 97 77 55 22", Hours: DefaultHours},
		Links: contact.Links{},
	})
}

func TestMatchPriorityAndCase(t *testing.T) {
	m := NewMatcher(DefaultRules())

	cases := map[string]Intent{
		"Quels sont vos horaires ?":          IntentHours,
		"HORAIRE":                            IntentHours,
		"urgence horaire":                    IntentHours,
		"C'est URGENT":                       IntentEmergency,
		"je veux envoyer mon ordonnance":     IntentPrescription,
		"avez-vous du Paracétamol ?":         IntentMedication,
		"un comprimé contre la fièvre":       IntentMedication,
		"livraison possible ?":               IntentDelivery,
		"je voudrais un conseil":             IntentCounseling,
		"quelle est votre adresse":           IntentAddress,
		"que faites-vous":                    IntentServices,
		"je suis perdu":                      IntentNavigation,
		"j'ai besoin d'aide":                 IntentHelp,
		"help":                               IntentHelp,
		"where is the shop":                  IntentNavigation,
		"salut":                              IntentGreeting,
		"merci beaucoup":                     IntentThanks,
		"xyz":                                IntentNone,
	}
	for input, want := range cases {
		assert.Equal(t, want, m.Match(input), input)
	}
}

func TestSubstringMatchingIsLiteral(t *testing.T) {
	m := NewMatcher(DefaultRules())
	// "heureux" contains "heure": a known limitation of substring matching.
	assert.Equal(t, IntentHours, m.Match("je suis heureux"))
}

func TestHoursReplyAlwaysForHoraire(t *testing.T) {
	a := newAssistant()
	for _, input := range []string{"horaire", "HORAIRE ?", "vos horaires de livraison", "Horaire urgence ordonnance"} {
		intent, reply := a.Answer(input, models.UserContext{}, monday10)
		assert.Equal(t, IntentHours, intent)
		assert.Contains(t, reply.Text, "7h00 - 20h00", input)
		assert.Contains(t, reply.Text, "8h00 - 18h00", input)
	}
}

func TestHoursOpenFlag(t *testing.T) {
	a := newAssistant()

	_, reply := a.Answer("horaires", models.UserContext{}, monday10)
	assert.Contains(t, reply.Text, "actuellement ouverts")

	_, reply = a.Answer("horaires", models.UserContext{}, time.Date(2024, 1, 15, 21, 0, 0, 0, time.UTC))
	assert.Contains(t, reply.Text, "actuellement fermés")

	sunday19 := time.Date(2024, 1, 14, 19, 0, 0, 0, time.UTC)
	_, reply = a.Answer("horaires", models.UserContext{}, sunday19)
	assert.Contains(t, reply.Text, "actuellement fermés")
}

func TestIsOpenInclusiveBounds(t *testing.T) {
	day := func(h int) time.Time { return time.Date(2024, 1, 15, h, 30, 0, 0, time.UTC) }
	assert.False(t, IsOpen(DefaultHours, day(6)))
	assert.True(t, IsOpen(DefaultHours, day(7)))
	assert.True(t, IsOpen(DefaultHours, day(20)))
	assert.False(t, IsOpen(DefaultHours, day(21)))
}

func TestMedicationLookupBranches(t *testing.T) {
	a := newAssistant()

	_, known := a.Answer("Avez-vous de l'amoxicilline ?", models.UserContext{}, monday10)
	assert.True(t, strings.HasPrefix(known.Text, "Amoxicilline fait partie"), known.Text)
	require.Len(t, known.QuickActions, 2)
	assert.Equal(t, models.ActionNavigate, known.QuickActions[0].Kind)
	assert.True(t, strings.HasPrefix(known.QuickActions[1].Target, "https://wa.me/22997775522?text="))

	_, unknown := a.Answer("un médicament pour dormir", models.UserContext{}, monday10)
	assert.Contains(t, unknown.Text, "large stock")
	require.Len(t, unknown.QuickActions, 1)
	assert.Equal(t, "tel:+22997775522", unknown.QuickActions[0].Target)
}

func TestNavigationUsesCurrentPage(t *testing.T) {
	a := newAssistant()

	_, reply := a.Answer("je suis perdu", models.UserContext{CurrentPath: "/products"}, monday10)
	assert.Contains(t, reply.Text, "nos produits")
	assert.Equal(t, pageTable["/products"].Actions, reply.QuickActions)

	_, reply = a.Answer("je suis perdu", models.UserContext{CurrentPath: "/unknown"}, monday10)
	assert.Equal(t, defaultActions(), reply.QuickActions)
}

func TestUnmatchedFallsBackToPageThenDefault(t *testing.T) {
	a := newAssistant()

	_, reply := a.Answer("xyz", models.UserContext{CurrentPath: "/contact"}, monday10)
	assert.Contains(t, reply.Text, "la page Contact")

	_, reply = a.Answer("xyz", models.UserContext{}, monday10)
	assert.Contains(t, reply.Text, "Je ne suis pas sûr de comprendre votre question")
	assert.Contains(t, reply.Text, "+229 97 77 55 22")
}

func TestWelcome(t *testing.T) {
	assert.Equal(t,
		"Bonjour ! Je suis l'assistant virtuel de la Pharmacie du Soleil. Comment puis-je vous aider aujourd'hui ?",
		newAssistant().Welcome())
}

func TestRecentSearchesBecomeSuggestions(t *testing.T) {
	a := newAssistant()
	uc := models.UserContext{RecentSearches: []string{"doliprane", "Vitamine C", "vitamine c"}}

	_, reply := a.Answer("xyz", uc, monday10)
	assert.Equal(t, []string{"Avez-vous vitamine c ?", "Avez-vous doliprane ?"}, reply.Suggestions)

	_, hours := a.Answer("horaires", uc, monday10)
	assert.Equal(t, []string{"Où êtes-vous situés ?", "Faites-vous la livraison ?"}, hours.Suggestions)

	_, none := a.Answer("xyz", models.UserContext{}, monday10)
	assert.Empty(t, none.Suggestions)
}
