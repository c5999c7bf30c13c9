package assistant

import (
	"github.com/pharmaciedusoleil/portal/internal/models"
)

// pageContext is what the assistant offers on a given page when the visitor
// asks for directions or says something it does not recognize.
type pageContext struct {
	Name    string
	Hint    string
	Actions []models.QuickAction
}

func navigate(label, path string) models.QuickAction {
	return models.QuickAction{Label: label, Kind: models.ActionNavigate, Target: path}
}

func info(label, topic string) models.QuickAction {
	return models.QuickAction{Label: label, Kind: models.ActionInfo, Target: topic}
}

var pageTable = map[string]pageContext{
	"/": {
		Name: "l'accueil",
		Hint: "Depuis l'accueil, vous pouvez découvrir nos services, parcourir nos produits ou nous contacter.",
		Actions: []models.QuickAction{
			navigate("Nos services", "/services"),
			navigate("Nos produits", "/products"),
			navigate("Nous contacter", "/contact"),
		},
	},
	"/about": {
		Name: "la page À propos",
		Hint: "Vous êtes sur la présentation de la pharmacie et de notre équipe.",
		Actions: []models.QuickAction{
			navigate("Nos services", "/services"),
			navigate("Nous contacter", "/contact"),
		},
	},
	"/services": {
		Name: "nos services",
		Hint: "Vous consultez nos services : conseil, tension, glycémie, vaccination et livraison.",
		Actions: []models.QuickAction{
			info("Livraison à domicile", string(IntentDelivery)),
			info("Conseil pharmaceutique", string(IntentCounseling)),
			navigate("Prendre contact", "/contact"),
		},
	},
	"/products": {
		Name: "nos produits",
		Hint: "Vous pouvez rechercher un produit par nom ou filtrer par catégorie.",
		Actions: []models.QuickAction{
			info("Disponibilité d'un médicament", string(IntentMedication)),
			info("Envoyer une ordonnance", string(IntentPrescription)),
		},
	},
	"/contact": {
		Name: "la page Contact",
		Hint: "Vous pouvez nous écrire via le formulaire, nous appeler ou nous joindre sur WhatsApp.",
		Actions: []models.QuickAction{
			info("Horaires d'ouverture", string(IntentHours)),
			info("Adresse", string(IntentAddress)),
		},
	},
	"/account": {
		Name: "votre espace client",
		Hint: "Votre espace regroupe vos rappels de médicaments, vos ordonnances et votre carnet de santé.",
		Actions: []models.QuickAction{
			navigate("Mes rappels", "/account#reminders"),
			navigate("Mes ordonnances", "/account#prescriptions"),
		},
	},
}

func defaultActions() []models.QuickAction {
	return []models.QuickAction{
		navigate("Nos services", "/services"),
		navigate("Nos produits", "/products"),
		info("Horaires d'ouverture", string(IntentHours)),
	}
}

func lookupPage(path string) (pageContext, bool) {
	pc, ok := pageTable[path]
	return pc, ok
}
