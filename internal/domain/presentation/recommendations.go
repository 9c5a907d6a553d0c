package presentation

import "github.com/okian/peri/internal/domain/scoring"

var recommendations = map[scoring.Band][]string{
	scoring.BandLow: {
		"Continue annual wellness visits with your gynecologist or primary care provider",
		"Monitor blood pressure quarterly at home or at a pharmacy",
		"Schedule a lipid panel at your next checkup",
		"Maintain physical activity: 150 minutes of moderate cardio per week",
	},
	scoring.BandModerate: {
		"Discuss your cardiovascular risk profile with your doctor at your next visit",
		"Request a full fasting lipid panel and fasting glucose test",
		"Monitor blood pressure weekly at home and bring the log to your appointment",
		"Ask about hormone therapy: estrogen can be cardioprotective in the perimenopause window",
		"Consider Mediterranean or DASH diet for vascular health",
	},
	scoring.BandHigh: {
		"Schedule a cardiovascular risk consultation; do not wait for your annual visit",
		"Request ECG, comprehensive metabolic panel, and full lipid panel",
		"Discuss statin candidacy and blood pressure medication options with your cardiologist",
		"Bring this report to your next appointment",
		"Target blood pressure below 130/80 mmHg",
	},
	scoring.BandVeryHigh: {
		"Contact your cardiologist or OB-GYN this week, not at your next visit",
		"Do not ignore chest pain, shortness of breath, jaw pain, or arm pain; call 911 if these occur",
		"Request immediate ECG if experiencing palpitations or chest discomfort",
		"Discuss aggressive risk modification: BP medication, statins, lifestyle, HRT timing",
		"Ask about coronary artery calcium scoring for baseline arterial health",
	},
}

// Recommendations returns the next steps for band b, Moderate's list for
// unknown bands.
func Recommendations(b scoring.Band) []string {
	list, ok := recommendations[b]
	if !ok {
		list = recommendations[scoring.BandModerate]
	}
	out := make([]string, len(list))
	copy(out, list)
	return out
}
