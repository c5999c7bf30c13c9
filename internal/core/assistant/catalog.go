package assistant

import (
	"fmt"
	"strings"
	"time"

	"github.com/pharmaciedusoleil/portal/internal/core/contact"
	"github.com/pharmaciedusoleil/portal/internal/models"
)

// Drug is a medication the assistant can name in its replies.
type Drug struct {
	Name     string
	Triggers []string
}

var KnownDrugs = []Drug{
	{Name: "Paracétamol", Triggers: []string{"paracétamol", "paracetamol", "doliprane"}},
	{Name: "Amoxicilline", Triggers: []string{"amoxicilline", "amoxicillin"}},
	{Name: "Ibuprofène", Triggers: []string{"ibuprofène", "ibuprofene", "ibuprofen"}},
	{Name: "Metformine", Triggers: []string{"metformine", "metformin"}},
	{Name: "Lisinopril", Triggers: []string{"lisinopril"}},
	{Name: "Vitamine C", Triggers: []string{"vitamine c", "vitamin c"}},
}

// Reply is what the assistant says back.
type Reply struct {
	Text         string
	QuickActions []models.QuickAction
	Suggestions  []string
}

// Responder renders canned replies for an intent.
type Responder struct {
	Info  models.PharmacyInfo
	Links contact.Links
}

func (r *Responder) phoneDisplay() string {
	if r.Info.Phone != "" {
		return r.Info.Phone
	}
	return "+229 97 77 55 22"
}

func (r *Responder) callAction() models.QuickAction {
	return models.QuickAction{Label: "Appeler", Kind: models.ActionContact, Target: r.Links.Dial()}
}

func (r *Responder) whatsAppAction(message string) models.QuickAction {
	return models.QuickAction{Label: "WhatsApp", Kind: models.ActionContact, Target: r.Links.WhatsApp(message)}
}

const maxSearchSuggestions = 2

// Respond renders the reply for intent. query is the raw user text; uc is the
// visitor's navigation context at the time the question was asked. Replies
// without their own suggestions offer the visitor's latest product searches.
func (r *Responder) Respond(intent Intent, query string, uc models.UserContext, now time.Time) Reply {
	reply := r.respond(intent, query, uc, now)
	if len(reply.Suggestions) == 0 {
		reply.Suggestions = searchSuggestions(uc.RecentSearches)
	}
	return reply
}

// searchSuggestions turns the newest distinct searches into questions.
func searchSuggestions(searches []string) []string {
	var out []string
	seen := make(map[string]bool)
	for i := len(searches) - 1; i >= 0 && len(out) < maxSearchSuggestions; i-- {
		key := strings.ToLower(searches[i])
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, fmt.Sprintf("Avez-vous %s ?", searches[i]))
	}
	return out
}

func (r *Responder) respond(intent Intent, query string, uc models.UserContext, now time.Time) Reply {
	switch intent {
	case IntentHours:
		return r.hours(now)
	case IntentMedication:
		return r.medication(query)
	case IntentNavigation:
		return r.navigation(uc)
	case IntentEmergency:
		return Reply{
			Text:         fmt.Sprintf("Pour les urgences, contactez-nous immédiatement au %s ou via WhatsApp. Nous sommes là pour vous aider 24h/24 pour les urgences.", r.phoneDisplay()),
			QuickActions: []models.QuickAction{r.callAction(), r.whatsAppAction("")},
		}
	case IntentPrescription:
		return Reply{
			Text: "Vous pouvez télécharger une photo ou un PDF de votre ordonnance depuis votre espace client. Nos pharmaciens la valident puis vous pouvez commander les médicaments.",
			QuickActions: []models.QuickAction{
				navigate("Envoyer une ordonnance", "/account#prescriptions"),
				r.whatsAppAction(""),
			},
			Suggestions: []string{"Combien de temps prend la validation ?", "Faites-vous la livraison ?"},
		}
	case IntentDelivery:
		return Reply{
			Text:         "Nous proposons un service de livraison à domicile dans Cotonou et ses environs. Les frais de livraison varient selon la distance. Contactez-nous pour plus d'informations.",
			QuickActions: []models.QuickAction{r.whatsAppAction("Bonjour, je souhaite me faire livrer des médicaments."), r.callAction()},
		}
	case IntentCounseling:
		return Reply{
			Text:         "Nos pharmaciens vous conseillent sur vos traitements, les interactions médicamenteuses et les petits maux du quotidien. Passez nous voir ou écrivez-nous.",
			QuickActions: []models.QuickAction{r.whatsAppAction("Bonjour, j'aimerais un conseil de votre pharmacien."), r.callAction()},
		}
	case IntentAddress:
		return Reply{
			Text:         fmt.Sprintf("Nous sommes situés au %s. Vous pouvez nous joindre au %s.", r.address(), r.phoneDisplay()),
			QuickActions: []models.QuickAction{navigate("Nous contacter", "/contact"), r.callAction()},
		}
	case IntentServices:
		return Reply{
			Text:         "Nos services incluent :\n• Vente de médicaments\n• Conseil pharmaceutique\n• Mesure de tension artérielle\n• Test de glycémie\n• Vaccination\n• Livraison à domicile",
			QuickActions: []models.QuickAction{navigate("Nos services", "/services")},
		}
	case IntentHelp:
		return Reply{
			Text:         "Je peux vous renseigner sur nos horaires, nos services, la disponibilité des médicaments, l'envoi d'ordonnances et la livraison. Que souhaitez-vous savoir ?",
			QuickActions: defaultActions(),
			Suggestions:  []string{"Quels sont vos horaires ?", "Faites-vous la livraison ?"},
		}
	case IntentGreeting:
		return Reply{Text: "Bonjour ! Comment puis-je vous aider aujourd'hui ?"}
	case IntentThanks:
		return Reply{Text: "Je vous en prie ! N'hésitez pas si vous avez d'autres questions."}
	}

	if pc, ok := lookupPage(uc.CurrentPath); ok {
		return Reply{
			Text:         fmt.Sprintf("Je ne suis pas sûr de comprendre. Vous êtes sur %s. %s", pc.Name, pc.Hint),
			QuickActions: pc.Actions,
		}
	}
	return r.fallback()
}

func (r *Responder) address() string {
	if r.Info.Address != "" {
		return r.Info.Address
	}
	return "Quartier Akpakpa, Cotonou, Bénin"
}

func (r *Responder) fallback() Reply {
	return Reply{
		Text:         fmt.Sprintf("Je ne suis pas sûr de comprendre votre question. Vous pouvez me demander des informations sur nos horaires, services, médicaments, ou nous contacter directement au %s.", r.phoneDisplay()),
		QuickActions: defaultActions(),
	}
}

func (r *Responder) hours(now time.Time) Reply {
	hours := r.Info.Hours
	if hours == (models.OpeningHours{}) {
		hours = DefaultHours
	}

	status := "Nous sommes actuellement fermés."
	if IsOpen(hours, now) {
		status = "Nous sommes actuellement ouverts."
	}
	return Reply{
		Text:         HoursText(hours) + "\n\n" + status,
		QuickActions: []models.QuickAction{r.callAction()},
		Suggestions:  []string{"Où êtes-vous situés ?", "Faites-vous la livraison ?"},
	}
}

func (r *Responder) medication(query string) Reply {
	normalized := strings.ToLower(query)
	for _, drug := range KnownDrugs {
		for _, trigger := range drug.Triggers {
			if !strings.Contains(normalized, trigger) {
				continue
			}
			return Reply{
				Text: fmt.Sprintf("%s fait partie de nos références habituelles. Pour confirmer la disponibilité et le dosage, écrivez-nous ou consultez notre catalogue.", drug.Name),
				QuickActions: []models.QuickAction{
					navigate("Voir le catalogue", "/products"),
					r.whatsAppAction(contact.ProductRequestMessage(drug.Name)),
				},
			}
		}
	}

	return Reply{
		Text:         "Nous disposons d'un large stock de médicaments génériques et de marque. Pour vérifier la disponibilité d'un médicament spécifique, n'hésitez pas à nous appeler.",
		QuickActions: []models.QuickAction{r.callAction()},
	}
}

func (r *Responder) navigation(uc models.UserContext) Reply {
	if pc, ok := lookupPage(uc.CurrentPath); ok {
		return Reply{
			Text:         fmt.Sprintf("Vous êtes sur %s. %s", pc.Name, pc.Hint),
			QuickActions: pc.Actions,
		}
	}
	return Reply{
		Text:         "Je peux vous guider sur le site : services, produits, espace client ou contact.",
		QuickActions: defaultActions(),
	}
}

// Assistant ties the matcher to the responder.
type Assistant struct {
	matcher   *Matcher
	responder *Responder
}

func New(matcher *Matcher, responder *Responder) *Assistant {
	return &Assistant{matcher: matcher, responder: responder}
}

// Answer classifies text and renders the reply.
func (a *Assistant) Answer(text string, uc models.UserContext, now time.Time) (Intent, Reply) {
	intent := a.matcher.Match(text)
	return intent, a.responder.Respond(intent, text, uc, now)
}

// Welcome is the first message of every conversation.
func (a *Assistant) Welcome() string {
	name := a.responder.Info.Name
	if name == "" {
		name = "Pharmacie du Soleil"
	}
	return fmt.Sprintf("Bonjour ! Je suis l'assistant virtuel de la %s. Comment puis-je vous aider aujourd'hui ?", name)
}
