package labels

// GoEmotions is the 28-category taxonomy (27 emotions plus neutral) used by
// the primary training corpus. Index order matches the published dataset and
// must not change: trained models index their output layer by it.
var GoEmotions = MustSpace([]string{
	"admiration",
	"amusement",
	"anger",
	"annoyance",
	"approval",
	"caring",
	"confusion",
	"curiosity",
	"desire",
	"disappointment",
	"disapproval",
	"disgust",
	"embarrassment",
	"excitement",
	"fear",
	"gratitude",
	"grief",
	"joy",
	"love",
	"nervousness",
	"optimism",
	"pride",
	"realization",
	"relief",
	"remorse",
	"sadness",
	"surprise",
	"neutral",
})

// Ekman is the coarse 7-category space (Ekman's six basic emotions plus
// neutral) used by the secondary sentiment corpus.
var Ekman = MustSpace([]string{
	"anger",
	"disgust",
	"fear",
	"joy",
	"sadness",
	"surprise",
	"neutral",
})

// GoEmotionsToEkman maps each GoEmotions category to its Ekman group, keyed
// by name. Projection through this map is the only supported way to move
// labels between the two spaces.
var GoEmotionsToEkman = map[string]string{
	"admiration":     "joy",
	"amusement":      "joy",
	"anger":          "anger",
	"annoyance":      "anger",
	"approval":       "joy",
	"caring":         "joy",
	"confusion":      "surprise",
	"curiosity":      "surprise",
	"desire":         "joy",
	"disappointment": "sadness",
	"disapproval":    "anger",
	"disgust":        "disgust",
	"embarrassment":  "sadness",
	"excitement":     "joy",
	"fear":           "fear",
	"gratitude":      "joy",
	"grief":          "sadness",
	"joy":            "joy",
	"love":           "joy",
	"nervousness":    "fear",
	"optimism":       "joy",
	"pride":          "joy",
	"realization":    "surprise",
	"relief":         "joy",
	"remorse":        "sadness",
	"sadness":        "sadness",
	"surprise":       "surprise",
	"neutral":        "neutral",
}
