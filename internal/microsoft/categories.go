package microsoft

import "strings"

// Outlook categories and canonical color ids map semantically, not 1:1: the
// forward direction is many-to-one, so the reverse table is its own fixed
// mapping rather than a literal inverse. Round trips are only exact when the
// raw categories travel with the event.

var categoryColors = map[string]string{
	// Academic
	"school":   "2",
	"academic": "2",
	"class":    "2",
	"homework": "2",
	"study":    "2",

	// Important/Urgent
	"important": "11",
	"urgent":    "11",
	"deadline":  "11",
	"critical":  "11",

	// Personal
	"personal": "9",
	"private":  "9",

	// Work/Business
	"work":     "10",
	"business": "10",
	"project":  "10",

	// Meetings
	"meeting":     "5",
	"appointment": "5",

	// Social
	"social": "3",
	"event":  "3",
	"party":  "3",

	// Travel
	"travel": "6",
	"trip":   "6",

	"birthday": "4",
	"holiday":  "4",
	"family":   "7",
}

var colorCategories = map[string]string{
	"1":  "General",
	"2":  "Academic",
	"3":  "Social",
	"4":  "Personal",
	"5":  "Meeting",
	"6":  "Travel",
	"7":  "Family",
	"8":  "Other",
	"9":  "Personal",
	"10": "Work",
	"11": "Important",
}

// categoryToColor maps an Outlook category name to a canonical color id,
// defaulting to "1".
func categoryToColor(category string) string {
	if color, ok := categoryColors[strings.ToLower(category)]; ok {
		return color
	}
	return "1"
}

// colorToCategory maps a canonical color id to an Outlook category name,
// defaulting to "General".
func colorToCategory(colorID string) string {
	if cat, ok := colorCategories[colorID]; ok {
		return cat
	}
	return "General"
}
