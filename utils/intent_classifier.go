package utils

import (
	"strings"

	"gramcare-backend/models"
)

// symptomMediumThreshold is the match count above which a symptom report becomes medium urgency.
const symptomMediumThreshold = 2

type IntentClassifier struct {
	emergency  []string
	symptoms   []string
	diseases   []string
	prevention []string
}

func NewIntentClassifier() *IntentClassifier {
	return &IntentClassifier{
		emergency: []string{
			"emergency", "urgent", "severe", "critical", "hospital", "ambulance",
		},
		symptoms: []string{
			"fever", "cough", "headache", "pain", "nausea", "vomiting", "diarrhea", "fatigue",
		},
		diseases: []string{
			"covid", "malaria", "dengue", "typhoid", "diabetes", "hypertension", "tuberculosis",
		},
		prevention: []string{
			"vaccine", "vaccination", "immunization", "hygiene", "sanitize", "mask",
		},
	}
}

// Classify maps a message to a category and urgency. Emergency terms always win.
func (ic *IntentClassifier) Classify(message string) models.IntentContext {
	message = strings.ToLower(message)

	if found := matchKeywords(message, ic.emergency); len(found) > 0 {
		return models.IntentContext{
			Category:        models.CategoryEmergency,
			Urgency:         models.UrgencyHigh,
			MatchedKeywords: found,
		}
	}

	if found := matchKeywords(message, ic.symptoms); len(found) > 0 {
		urgency := models.UrgencyLow
		if len(found) > symptomMediumThreshold {
			urgency = models.UrgencyMedium
		}
		return models.IntentContext{
			Category:        models.CategorySymptoms,
			Urgency:         urgency,
			MatchedKeywords: found,
		}
	}

	if found := matchKeywords(message, ic.diseases); len(found) > 0 {
		return models.IntentContext{
			Category:        models.CategoryDiseaseInfo,
			Urgency:         models.UrgencyLow,
			MatchedKeywords: found,
		}
	}

	if found := matchKeywords(message, ic.prevention); len(found) > 0 {
		return models.IntentContext{
			Category:        models.CategoryPrevention,
			Urgency:         models.UrgencyLow,
			MatchedKeywords: found,
		}
	}

	return models.IntentContext{
		Category:        models.CategoryGeneral,
		Urgency:         models.UrgencyLow,
		MatchedKeywords: []string{},
	}
}

// Keywords returns the keyword list for a category, for the categories endpoint.
func (ic *IntentClassifier) Keywords(category models.Category) []string {
	switch category {
	case models.CategoryEmergency:
		return append([]string(nil), ic.emergency...)
	case models.CategorySymptoms:
		return append([]string(nil), ic.symptoms...)
	case models.CategoryDiseaseInfo:
		return append([]string(nil), ic.diseases...)
	case models.CategoryPrevention:
		return append([]string(nil), ic.prevention...)
	}
	return nil
}

// matchKeywords returns the keywords contained in message, in list order.
func matchKeywords(message string, keywords []string) []string {
	var found []string
	for _, keyword := range keywords {
		if strings.Contains(message, keyword) {
			found = append(found, keyword)
		}
	}
	return found
}
