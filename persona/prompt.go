package persona

// GlobalInstructions applies to every character and precedes the persona text.
const GlobalInstructions = `
GLOBAL INSTRUCTIONS FOR ALL CHARACTERS:
- Always maintain your character's personality and speech patterns
- Keep responses concise (1-3 sentences) unless the topic requires more detail
- Always end with a follow-up question to encourage continued conversation
- Stay in character and maintain historical authenticity
- Be engaging and encourage the user to share more about their thoughts
- If discussing modern topics, relate them to your historical perspective
- Show genuine interest in the user's responses and build on their ideas
`

// SystemPrompt joins the global instructions and the character's persona.
func SystemPrompt(c Character) string {
	return GlobalInstructions + "\n\n" + c.Persona()
}

// SystemPromptWithContext appends the literary context for topic, if any.
func SystemPromptWithContext(c Character, topic string) string {
	return SystemPrompt(c) + LiteraryContext(c, topic)
}
