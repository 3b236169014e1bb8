package services

import (
	"math"

	"gramcare-backend/models"
	"gramcare-backend/utils"
)

// FormatMeta is what the formatter knows about a turn beyond its text.
type FormatMeta struct {
	Language  string
	Intent    *models.IntentContext
	Source    string
	SessionID string
	Failed    bool
	Error     string
}

var categorySuggestions = map[models.Category][]string{
	models.CategoryEmergency: {
		"Find the nearest hospital",
		"What are the signs of a heart attack?",
		"First aid for burns",
	},
	models.CategorySymptoms: {
		"When should I see a doctor?",
		"How to manage a fever at home?",
		"What causes a headache?",
	},
	models.CategoryDiseaseInfo: {
		"How does malaria spread?",
		"What are the symptoms of dengue?",
		"How to prevent typhoid?",
	},
	models.CategoryPrevention: {
		"Which vaccines does my child need?",
		"How to wash hands properly?",
		"How to keep drinking water safe?",
	},
	models.CategoryGeneral: {
		"What are the symptoms of dengue?",
		"How to prevent malaria?",
		"alerts",
	},
}

type ChannelFormatter struct {
	segmentLimit int
}

func NewChannelFormatter() *ChannelFormatter {
	return &ChannelFormatter{segmentLimit: utils.MaxSegmentLength}
}

// Format shapes a reply for channel. Segmented channels also get the text split into SMS-sized chunks.
func (f *ChannelFormatter) Format(text string, channel models.MessageChannel, meta FormatMeta) *models.ChannelPayload {
	lang := meta.Language
	if lang == "" {
		lang = defaultLanguage
	}

	payload := &models.ChannelPayload{
		Channel:   channel,
		Success:   !meta.Failed,
		Response:  text,
		Language:  lang,
		SessionID: meta.SessionID,
		Error:     meta.Error,
	}

	if !meta.Failed {
		payload.Confidence = confidence(meta.Source, meta.Intent)
		if meta.Intent != nil {
			payload.Category = meta.Intent.Category
			payload.Urgency = meta.Intent.Urgency
			payload.Suggestions = append([]string(nil), categorySuggestions[meta.Intent.Category]...)
		}
	}

	if channel.Segmented() {
		payload.Segments = utils.SplitSegments(text, f.segmentLimit)
	}

	return payload
}

// confidence is a heuristic score for how specific the reply is.
func confidence(source string, intent *models.IntentContext) float64 {
	switch source {
	case SourceCommand:
		return 1.0
	case SourceAI:
		return 0.85
	case SourceFAQ:
		return 0.7
	}

	if intent == nil {
		return 0.4
	}
	switch intent.Category {
	case models.CategoryEmergency:
		return 0.95
	case models.CategoryGeneral:
		return 0.4
	}
	score := 0.6 + 0.1*float64(len(intent.MatchedKeywords))
	return math.Round(math.Min(score, 0.9)*100) / 100
}
