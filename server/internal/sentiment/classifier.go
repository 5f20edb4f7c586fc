// Package sentiment buckets participant verbatims with a keyword heuristic.
package sentiment

import (
	"strings"
	"unicode"
)

// Sentiment is the bucket a verbatim falls into.
type Sentiment string

const (
	Positive Sentiment = "positive"
	Negative Sentiment = "negative"
	Neutral  Sentiment = "neutral"
)

// The keyword tables are load-bearing: results must stay reproducible.
var (
	negationMarkers = map[string]bool{
		"ne": true, "n": true, "pas": true, "jamais": true, "aucun": true,
		"aucune": true, "rien": true, "sans": true, "manque": true, "ni": true,
	}

	explicitNegativePhrases = []string{
		"pas clair",
		"pas intuitif",
		"pas facile",
		"pas évident",
		"pas trouvé",
		"ne comprends pas",
		"n'ai pas compris",
		"ne sais pas",
		"trop long",
		"trop compliqué",
		"perdu du temps",
	}

	positiveKeywords = map[string]bool{
		"facile": true, "faciles": true, "simple": true, "simples": true,
		"intuitif": true, "intuitive": true, "clair": true, "claire": true,
		"rapide": true, "pratique": true, "utile": true, "utiles": true,
		"efficace": true, "agréable": true, "bien": true, "bon": true,
		"bonne": true, "super": true, "génial": true, "top": true,
		"excellent": true, "parfait": true, "fluide": true, "apprécie": true,
		"aime": true, "plaît": true, "sympa": true, "ergonomique": true,
		"pertinent": true, "pertinente": true,
	}

	negativeKeywords = map[string]bool{
		"difficile": true, "compliqué": true, "compliquée": true, "complexe": true,
		"confus": true, "confuse": true, "lent": true, "lente": true,
		"bug": true, "bugs": true, "bloqué": true, "bloquée": true,
		"frustrant": true, "frustrante": true, "perdu": true, "perdue": true,
		"problème": true, "erreur": true, "mauvais": true, "mauvaise": true,
		"nul": true, "inutile": true, "pénible": true, "galère": true,
		"ambigu": true, "flou": true, "manquant": true,
	}
)

// Classify buckets a free-text verbatim. A negation next to any positive
// keyword flips the text to negative; there is no negation scope parsing.
func Classify(text string) Sentiment {
	lower := normalizeApostrophes(strings.ToLower(text))

	for _, phrase := range explicitNegativePhrases {
		if strings.Contains(lower, phrase) {
			return Negative
		}
	}

	var negated bool
	var pos, neg int
	for _, word := range tokenize(lower) {
		if negationMarkers[word] {
			negated = true
		}
		if positiveKeywords[word] {
			pos++
		}
		if negativeKeywords[word] {
			neg++
		}
	}

	switch {
	case negated && pos > 0:
		return Negative
	case pos > neg && pos > 0:
		return Positive
	case neg > pos && neg > 0:
		return Negative
	default:
		return Neutral
	}
}

// tokenize splits on anything that is not a letter, digit or hyphen, so
// elided forms like "n'est" yield "n" and "est".
func tokenize(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-'
	})
}

func normalizeApostrophes(s string) string {
	return strings.NewReplacer("’", "'", "‘", "'").Replace(s)
}
