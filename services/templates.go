package services

import (
	"fmt"
	"strings"

	"gramcare-backend/models"
)

// English reply templates by category. The symptoms and disease templates take the matched keywords.
var categoryTemplates = map[models.Category]string{
	models.CategoryEmergency: "This seems like an emergency situation. Please contact your nearest hospital or call " +
		"emergency services immediately. For immediate help, call 108 (India) or your local emergency number.",
	models.CategorySymptoms: "I understand you're experiencing %s. Please rest, drink plenty of fluids and monitor " +
		"your symptoms. If they persist for more than 2-3 days or get worse, please consult a healthcare professional.",
	models.CategoryDiseaseInfo: "For information about %s, please consult a healthcare professional at your nearest " +
		"health centre. I can also share general prevention tips if you'd like.",
	models.CategoryPrevention: "Good question about prevention! Wash your hands regularly, keep your surroundings clean, " +
		"drink safe water, get vaccinated as recommended and follow local health guidelines.",
	models.CategoryGeneral: "I'm here to help with your health questions. You can ask me about symptoms, diseases " +
		"or prevention, or type 'help' for more options.",
}

// mediumUrgencyNote is added to the symptoms template when several symptoms were reported.
const mediumUrgencyNote = " Since you mention several symptoms, please see a doctor soon."

var welcomeTemplates = map[string]string{
	"en": "Hello! I'm GramCare, your health assistant. I can answer health questions, share prevention tips " +
		"and local health alerts. How can I help you today?",
	"hi": "नमस्ते! मैं आपका ग्रामकेयर सहायक हूँ। मैं आपके किसी भी प्रश्न में मदद कर सकता हूँ, जानकारी प्रदान कर सकता हूँ " +
		"और उपयोगी सुझाव दे सकता हूँ। आज मैं आपकी कैसे सहायता कर सकता हूँ?",
	"bn": "নমস্কার! আমি আপনার গ্রামকেয়ার সহায়ক। আমি আপনার যেকোনো প্রশ্নে সাহায্য করতে পারি, তথ্য প্রদান করতে পারি " +
		"এবং সহায়ক পরামর্শ দিতে পারি। আজ আমি কীভাবে আপনাকে সহায়তা করতে পারি?",
	"as": "নমস্কাৰ! মই আপোনাৰ গ্ৰামকেয়াৰ সহায়ক। মই আপোনাৰ যিকোনো প্ৰশ্নত সহায় কৰিব পাৰোঁ, তথ্য প্ৰদান কৰিব পাৰোঁ " +
		"আৰু সহায়ক পৰামৰ্শ দিব পাৰোঁ। আজি মই আপোনাক কেনেকৈ সহায় কৰিব পাৰোঁ?",
	"te": "నమస్కారం! నేను మీ గ్రామకేయర్ సహాయకుడను. నేను మీ ఏ ప్రశ్నకైనా సహాయం చేయగలను, సమాచారం అందించగలను " +
		"మరియు సహాయకరమైన సలహాలు ఇవ్వగలను. ఈరోజు నేను మీకు ఎలా సహాయం చేయగలను?",
}

var helpTemplates = map[string]string{
	"en": "GramCare commands: send any health question in your language. 'hi' for Hindi, 'en' for English, " +
		"'alerts <place>' for local health alerts, 'help' for this message. In an emergency call 108.",
	"hi": "ग्रामकेयर आदेश: अपनी भाषा में कोई भी स्वास्थ्य प्रश्न भेजें। हिंदी के लिए 'hi', अंग्रेज़ी के लिए 'en', " +
		"स्थानीय स्वास्थ्य अलर्ट के लिए 'alerts <स्थान>', यह संदेश देखने के लिए 'help'। आपात स्थिति में 108 पर कॉल करें।",
}

var disclaimers = map[string]string{
	"en": "\n\nDisclaimer: This is informational only, not a medical diagnosis.",
	"hi": "\n\nअस्वीकरण: यह केवल जानकारी के लिए है, चिकित्सा निदान नहीं।",
}

var alertHeaders = map[string]string{
	"en": "Health alerts for %s:",
	"hi": "%s के लिए स्वास्थ्य अलर्ट:",
}

var noAlertTemplates = map[string]string{
	"en": "No active health alerts for %s.",
	"hi": "%s के लिए कोई सक्रिय स्वास्थ्य अलर्ट नहीं है।",
}

// ApologyMessage is the single reply sent when a turn fails internally.
const ApologyMessage = "Sorry, I encountered an error. Please try again later."

// maxAlertsPerReply caps the alerts listed in one reply.
const maxAlertsPerReply = 2

// CategoryTemplate renders the English template for an intent.
func CategoryTemplate(intent models.IntentContext) string {
	tmpl, ok := categoryTemplates[intent.Category]
	if !ok {
		tmpl = categoryTemplates[models.CategoryGeneral]
	}

	switch intent.Category {
	case models.CategorySymptoms:
		text := fmt.Sprintf(tmpl, strings.Join(intent.MatchedKeywords, ", "))
		if intent.Urgency == models.UrgencyMedium {
			text += mediumUrgencyNote
		}
		return text
	case models.CategoryDiseaseInfo:
		return fmt.Sprintf(tmpl, strings.Join(intent.MatchedKeywords, ", "))
	}
	return tmpl
}

func WelcomeText(lang string) string {
	return models.LocalizedText(welcomeTemplates, lang)
}

func Disclaimer(lang string) string {
	return models.LocalizedText(disclaimers, lang)
}

// helpText returns the help template and whether it exists natively in lang.
func helpText(lang string) (string, bool) {
	if t, ok := helpTemplates[lang]; ok {
		return t, true
	}
	return helpTemplates["en"], lang == "en"
}

// AlertsText lists at most two alerts for location in lang, or the no-alerts message.
func AlertsText(alerts []models.AlertEntry, location, lang string) string {
	if len(alerts) == 0 {
		return fmt.Sprintf(models.LocalizedText(noAlertTemplates, lang), location)
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf(models.LocalizedText(alertHeaders, lang), location))
	for i, alert := range alerts {
		if i >= maxAlertsPerReply {
			break
		}
		fmt.Fprintf(&b, "\n%d. %s", i+1, models.LocalizedText(alert.Message, lang))
	}
	return b.String()
}
