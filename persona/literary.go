package persona

import (
	"fmt"
	"strings"
)

// Work is a catalogued novel that can be woven into a Mr. Boz conversation.
type Work struct {
	Title         string
	Year          int
	Setting       string
	Themes        []string
	KeyCharacters []string
	FamousQuotes  []string
	PlotSummary   string
}

var works = []Work{
	{
		Title:   "A Tale of Two Cities",
		Year:    1859,
		Setting: "London and Paris during the French Revolution",
		Themes:  []string{"revolution", "sacrifice", "resurrection", "social injustice", "class struggle"},
		KeyCharacters: []string{
			"Sydney Carton", "Charles Darnay", "Lucie Manette", "Madame Defarge", "Dr. Manette",
		},
		FamousQuotes: []string{
			"It was the best of times, it was the worst of times",
			"It is a far, far better thing that I do, than I have ever done",
			"Recalled to life",
		},
		PlotSummary: "A story of love, sacrifice, and redemption set against the backdrop of the French Revolution, featuring themes of resurrection and the contrast between London and Paris.",
	},
	{
		Title:   "Great Expectations",
		Year:    1861,
		Setting: "Kent and London, early 19th century",
		Themes:  []string{"social mobility", "ambition", "class", "identity", "redemption"},
		KeyCharacters: []string{
			"Pip", "Estella", "Miss Havisham", "Magwitch", "Joe Gargery",
		},
		FamousQuotes: []string{
			"I was always treated as if I had insisted on being born",
			"Suffering has been stronger than all other teaching",
			"Take nothing on its looks; take everything on evidence",
		},
		PlotSummary: "The coming-of-age story of Pip, an orphan who dreams of becoming a gentleman, exploring themes of social class, ambition, and the true meaning of wealth.",
	},
	{
		Title:   "Oliver Twist",
		Year:    1838,
		Setting: "London workhouses and criminal underworld",
		Themes:  []string{"poverty", "child labor", "social reform", "innocence", "corruption"},
		KeyCharacters: []string{
			"Oliver Twist", "Fagin", "Bill Sikes", "Nancy", "Mr. Bumble",
		},
		FamousQuotes: []string{
			"Please, sir, I want some more",
			"The law is a ass",
			"It is because I think so much of warm and sensitive hearts, that I would spare them from being wounded",
		},
		PlotSummary: "The story of an orphan boy's struggles in Victorian London, exposing the harsh realities of workhouses and the criminal underworld while advocating for social reform.",
	},
}

// Works returns a copy of the catalogue.
func Works() []Work {
	out := make([]Work, len(works))
	copy(out, works)
	return out
}

// RelevantWorks returns the works whose themes or key characters appear in topic.
func RelevantWorks(topic string) []Work {
	topic = strings.ToLower(topic)
	if strings.TrimSpace(topic) == "" {
		return nil
	}

	var matched []Work
	for _, w := range works {
		if mentions(topic, w.Themes) || mentions(topic, w.KeyCharacters) {
			matched = append(matched, w)
		}
	}
	return matched
}

func mentions(topic string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(topic, strings.ToLower(term)) {
			return true
		}
	}
	return false
}

// LiteraryContext renders the works relevant to topic as a prompt block.
// Only Mr. Boz draws on the catalogue; other characters get an empty string.
func LiteraryContext(c Character, topic string) string {
	if c != MrBoz {
		return ""
	}
	matched := RelevantWorks(topic)
	if len(matched) == 0 {
		return ""
	}

	entries := make([]string, 0, len(matched))
	for _, w := range matched {
		entry := fmt.Sprintf("- %q (%d): %s", w.Title, w.Year, w.PlotSummary)
		entry += "\n  Key characters: " + strings.Join(w.KeyCharacters, ", ")
		entry += "\n  Themes: " + strings.Join(w.Themes, ", ")
		entries = append(entries, entry)
	}

	return "\n\nRELEVANT LITERARY CONTEXT FOR THIS CONVERSATION:\n" +
		strings.Join(entries, "\n\n") +
		"\n\nYou may reference these works, their characters, themes, and quotes when responding to maintain authenticity as their author."
}
