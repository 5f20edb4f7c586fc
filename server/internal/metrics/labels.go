package metrics

var labels = map[string]string{
	// Metric keys
	"ease":                    "Facilité d'utilisation",
	"valuePropositionClarity": "Clarté de la proposition de valeur",
	"firstImpression":         "Première impression",
	"postTestAdoption":        "Intention d'adoption",
	"duration":                "Durée",
	"autonomy":                "Autonomie",
	"pathFluidity":            "Fluidité du parcours",
	"emotionalReaction":       "Réaction émotionnelle",
	"searchMethod":            "Méthode de recherche",
	"success":                 "Succès",
	"role":                    "Rôle",
	"aiToolsFrequency":        "Fréquence d'usage des outils IA",
	"aliviaFrequency":         "Fréquence d'usage d'Alivia",

	// Export columns
	"sessionId":    "Session",
	"date":         "Date",
	"participant":  "Participant",
	"taskId":       "ID tâche",
	"taskTitle":    "Tâche",
	"category":     "Catégorie",
	"skipped":      "Ignorée",
	"notAttempted": "Non tentée",

	// duration
	"less-than-1min": "Moins d'1 minute",
	"1-3min":         "1 à 3 minutes",
	"3-5min":         "3 à 5 minutes",
	"more-than-5min": "Plus de 5 minutes",

	// autonomy
	"autonomous":   "Autonome",
	"minimal-help": "Aide minimale",
	"guided":       "Guidé",
	"blocked":      "Bloqué",

	// pathFluidity
	"direct":   "Direct",
	"hesitant": "Hésitant",
	"erratic":  "Erratique",

	// emotionalReaction
	"positive":   "Positive",
	"neutral":    "Neutre",
	"frustrated": "Frustré",

	// searchMethod
	"search-bar":     "Barre de recherche",
	"visual-catalog": "Catalogue visuel",
	"categories":     "Catégories",
	"favorites":      "Favoris",
	"suggestions":    "Suggestions",

	// usage frequencies
	"daily":   "Quotidienne",
	"weekly":  "Hebdomadaire",
	"monthly": "Mensuelle",
	"rarely":  "Rarement",
	"never":   "Jamais",
}

// Label returns the display string of a metric key or categorical value,
// or the input itself when it is not mapped.
func Label(key string) string {
	if l, ok := labels[key]; ok {
		return l
	}
	return key
}

// KnownValues lists the accepted values of each single-valued categorical metric.
var KnownValues = map[string][]string{
	"duration":          {"less-than-1min", "1-3min", "3-5min", "more-than-5min"},
	"autonomy":          {"autonomous", "minimal-help", "guided", "blocked"},
	"pathFluidity":      {"direct", "hesitant", "erratic"},
	"emotionalReaction": {"positive", "neutral", "frustrated"},
}
