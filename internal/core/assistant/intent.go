package assistant

import (
	"strings"
)

type Intent string

const (
	IntentHours        Intent = "hours"
	IntentEmergency    Intent = "emergency"
	IntentPrescription Intent = "prescription"
	IntentMedication   Intent = "medication"
	IntentDelivery     Intent = "delivery"
	IntentCounseling   Intent = "counseling"
	IntentAddress      Intent = "address"
	IntentServices     Intent = "services"
	IntentNavigation   Intent = "navigation"
	IntentHelp         Intent = "help"
	IntentGreeting     Intent = "greeting"
	IntentThanks       Intent = "thanks"
	IntentNone         Intent = ""
)

// Rule maps any of its triggers to an intent.
type Rule struct {
	Intent   Intent
	Triggers []string
}

// Matcher resolves text to the first rule with a trigger contained in the
// lowercased input. Matching is plain substring search, so incidental
// substrings ("heure" in "heureux") also match.
type Matcher struct {
	rules []Rule
}

func NewMatcher(rules []Rule) *Matcher {
	return &Matcher{rules: rules}
}

// DefaultRules is the priority order used by the site assistant. Hours comes
// first so any question mentioning "horaire" gets the opening hours.
func DefaultRules() []Rule {
	medication := []string{"médicament", "medicament", "comprimé", "comprime", "pilule", "pill", "tablet", "disponible"}
	for _, drug := range KnownDrugs {
		medication = append(medication, drug.Triggers...)
	}

	return []Rule{
		{IntentHours, []string{"horaire", "heure", "ouvert", "fermé", "ferme", "hours", "open", "closed"}},
		{IntentEmergency, []string{"urgence", "urgent", "emergency"}},
		{IntentPrescription, []string{"ordonnance", "prescription", "upload", "télécharger"}},
		{IntentMedication, medication},
		{IntentDelivery, []string{"livraison", "domicile", "delivery", "home"}},
		{IntentCounseling, []string{"conseil", "pharmacien", "advice", "pharmacist"}},
		{IntentAddress, []string{"adresse", "localisation", "situé", "address"}},
		{IntentServices, []string{"service", "que faites"}},
		{IntentNavigation, []string{"perdu", "lost", "comment", "how", "où", "where"}},
		{IntentHelp, []string{"aide", "assistance", "help"}},
		{IntentGreeting, []string{"bonjour", "salut", "hello"}},
		{IntentThanks, []string{"merci"}},
	}
}

// Label names the intent for metrics and logs; IntentNone is "none".
func (i Intent) Label() string {
	if i == IntentNone {
		return "none"
	}
	return string(i)
}

// Match returns the first matching intent, or IntentNone.
func (m *Matcher) Match(text string) Intent {
	normalized := strings.ToLower(text)
	for _, rule := range m.rules {
		for _, trigger := range rule.Triggers {
			if strings.Contains(normalized, trigger) {
				return rule.Intent
			}
		}
	}
	return IntentNone
}
