package services

import (
	"fmt"
	"log"
	"os"
	"strings"
	"unicode"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"gramcare-backend/data"
	"gramcare-backend/models"
)

const (
	keywordScore      = 2
	questionWordScore = 1
	// questionWordMinLength is the rune length a question word must exceed to count.
	questionWordMinLength = 3
)

type faqFile struct {
	FAQs []models.FAQEntry `yaml:"faqs"`
}

type alertFile struct {
	Alerts []models.AlertEntry `yaml:"alerts"`
}

// KnowledgeBase is the static FAQ and alert data, loaded once at startup.
type KnowledgeBase struct {
	faqs   []models.FAQEntry
	alerts []models.AlertEntry
}

// LoadKnowledgeBase reads the FAQ and alert files. An empty path selects the embedded default.
func LoadKnowledgeBase(faqPath, alertPath string) (*KnowledgeBase, error) {
	faqData, err := readDataFile(faqPath, data.FAQs)
	if err != nil {
		return nil, fmt.Errorf("failed to read FAQ data: %w", err)
	}
	alertData, err := readDataFile(alertPath, data.Alerts)
	if err != nil {
		return nil, fmt.Errorf("failed to read alert data: %w", err)
	}

	var faqs faqFile
	if err := yaml.Unmarshal(faqData, &faqs); err != nil {
		return nil, fmt.Errorf("failed to parse FAQ data: %w", err)
	}
	var alerts alertFile
	if err := yaml.Unmarshal(alertData, &alerts); err != nil {
		return nil, fmt.Errorf("failed to parse alert data: %w", err)
	}

	log.Printf("[KnowledgeBase.Load] loaded %d FAQs and %d alerts", len(faqs.FAQs), len(alerts.Alerts))
	return NewKnowledgeBase(faqs.FAQs, alerts.Alerts), nil
}

func NewKnowledgeBase(faqs []models.FAQEntry, alerts []models.AlertEntry) *KnowledgeBase {
	return &KnowledgeBase{faqs: faqs, alerts: alerts}
}

func readDataFile(path string, fallback []byte) ([]byte, error) {
	if path == "" {
		return fallback, nil
	}
	return os.ReadFile(path)
}

// FindBestMatch scores every FAQ against text: two points per keyword found and one per
// question word longer than three letters found. The first entry with the highest
// positive score wins.
func (kb *KnowledgeBase) FindBestMatch(text string) (*models.FAQEntry, bool) {
	input := strings.ToLower(text)

	bestScore := 0
	bestIndex := -1
	for i := range kb.faqs {
		if score := scoreFAQ(input, kb.faqs[i]); score > bestScore {
			bestScore = score
			bestIndex = i
		}
	}
	if bestIndex < 0 {
		return nil, false
	}

	entry := kb.faqs[bestIndex]
	return &entry, true
}

func scoreFAQ(input string, entry models.FAQEntry) int {
	score := 0
	for _, keyword := range entry.Keywords {
		if keyword = strings.ToLower(keyword); keyword != "" && strings.Contains(input, keyword) {
			score += keywordScore
		}
	}
	for _, word := range strings.Fields(strings.ToLower(entry.Question)) {
		word = strings.TrimFunc(word, unicode.IsPunct)
		if utf8.RuneCountInString(word) > questionWordMinLength && strings.Contains(input, word) {
			score += questionWordScore
		}
	}
	return score
}

// AlertsFor returns the alerts whose location or an affected area contains location.
// "all" returns every alert.
func (kb *KnowledgeBase) AlertsFor(location string) []models.AlertEntry {
	location = strings.ToLower(strings.TrimSpace(location))
	if location == "" || location == defaultAlertLocation {
		return append([]models.AlertEntry(nil), kb.alerts...)
	}

	var out []models.AlertEntry
	for _, alert := range kb.alerts {
		if alertMatches(alert, location) {
			out = append(out, alert)
		}
	}
	return out
}

func alertMatches(alert models.AlertEntry, location string) bool {
	if strings.Contains(strings.ToLower(alert.Location), location) {
		return true
	}
	for _, area := range alert.AffectedAreas {
		if strings.Contains(strings.ToLower(area), location) {
			return true
		}
	}
	return false
}

func (kb *KnowledgeBase) FAQs() []models.FAQEntry {
	return append([]models.FAQEntry(nil), kb.faqs...)
}

func (kb *KnowledgeBase) Alerts() []models.AlertEntry {
	return append([]models.AlertEntry(nil), kb.alerts...)
}
