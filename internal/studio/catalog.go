package studio

// ExportPrefix starts every downloaded filename.
const ExportPrefix = "proshot"

const (
	DefaultBackground = "a modern blurred office interior"
	DefaultAttire     = "a professional charcoal suit with a white shirt"
)

// Choice is one entry of a fixed option list shown in the UI.
type Choice struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Backgrounds lists the background scenes offered by the UI.
var Backgrounds = []Choice{
	{Label: "Modern Office", Value: DefaultBackground},
	{Label: "Classic Grey", Value: "a minimalist grey studio background"},
	{Label: "Pure White", Value: "a clean plain white studio background"},
	{Label: "Library/Executive", Value: "a sophisticated dark mahogany library"},
}

// Attires lists the attire styles offered by the UI.
var Attires = []Choice{
	{Label: "Formal Charcoal Suit", Value: DefaultAttire},
	{Label: "Business Casual", Value: "a smart business casual blazer with an open-neck shirt"},
	{Label: "Professional Blouse", Value: "a crisp professional white blouse"},
	{Label: "Executive Black", Value: "a black executive suit with a silk tie"},
}

// ModeInfo describes a mode card on the home screen.
type ModeInfo struct {
	Mode     Mode     `json:"mode"`
	Title    string   `json:"title"`
	Summary  string   `json:"summary"`
	Features []string `json:"features"`
	Action   string   `json:"action"`
}

// Modes returns the mode cards in display order.
func Modes() []ModeInfo {
	return []ModeInfo{
		{
			Mode:    ModeHeadshot,
			Title:   "Corporate Headshot",
			Summary: "Perfect for LinkedIn profiles, corporate directories, and professional resumes.",
			Features: []string{
				"AI-generated professional attire",
				"Studio background options",
				"High-fidelity facial preservation",
			},
			Action: "Generate Headshot",
		},
		{
			Mode:    ModePassport,
			Title:   "Passport Photo",
			Summary: "Compliant, high-resolution ID photos with solid backgrounds for any country.",
			Features: []string{
				"Flat background colors",
				"Even studio lighting",
				"Multi-country sizing support",
			},
			Action: "Generate Passport Photo",
		},
	}
}

// ActionLabel returns the submit button text for a mode. The passport label
// is the fallback when no mode is selected.
func ActionLabel(m Mode) string {
	if m == ModeHeadshot {
		return "Generate Headshot"
	}
	return "Generate Passport Photo"
}
