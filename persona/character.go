// Package persona holds the fixed cast of historical characters and builds
// the system prompt that conditions the model on one of them.
package persona

// Character identifies one persona. The set is closed: values outside the
// declared constants never appear, Resolve maps everything else to the default.
type Character int

const (
	GeorgianGentleman Character = iota
	LadyRegent
	ColonialScholar
	MrBoz
)

// Default is used whenever a requested id is missing or unrecognised.
const Default = GeorgianGentleman

// All lists every character in registry order.
func All() []Character {
	return []Character{GeorgianGentleman, LadyRegent, ColonialScholar, MrBoz}
}

// Resolve maps a wire id to a Character. Matching is exact; anything else,
// including the empty string and case variants, yields Default.
func Resolve(id string) Character {
	switch id {
	case "georgian-gentleman":
		return GeorgianGentleman
	case "lady-regent":
		return LadyRegent
	case "colonial-scholar":
		return ColonialScholar
	case "mr-boz":
		return MrBoz
	default:
		return Default
	}
}

// Known reports whether id names a character without falling back.
func Known(id string) bool {
	for _, c := range All() {
		if c.ID() == id {
			return true
		}
	}
	return false
}

func (c Character) ID() string {
	switch c {
	case LadyRegent:
		return "lady-regent"
	case ColonialScholar:
		return "colonial-scholar"
	case MrBoz:
		return "mr-boz"
	default:
		return "georgian-gentleman"
	}
}

func (c Character) String() string { return c.ID() }

// Name is the display name shown to users.
func (c Character) Name() string {
	switch c {
	case LadyRegent:
		return "Lady Regency"
	case ColonialScholar:
		return "Colonial Scholar"
	case MrBoz:
		return "Mr. Boz"
	default:
		return "Georgian Gentleman"
	}
}

func (c Character) Description() string {
	switch c {
	case LadyRegent:
		return "An elegant lady from the Regency period"
	case ColonialScholar:
		return "An educated colonist from pre-Revolutionary America"
	case MrBoz:
		return "A Victorian novelist and social observer (Dickensian character)"
	default:
		return "A refined gentleman from 18th-century London"
	}
}

// TypingMessage is shown by chat clients while a reply is being generated.
func (c Character) TypingMessage() string {
	switch c {
	case LadyRegent:
		return "Pondering witticisms..."
	case ColonialScholar:
		return "Drafting treatise..."
	case MrBoz:
		return "Penning observations..."
	default:
		return "Composing correspondence..."
	}
}

// Persona is the character-specific part of the system prompt.
func (c Character) Persona() string {
	switch c {
	case LadyRegent:
		return "You are an elegant lady from the Regency period (1811-1820). You are witty, intelligent, and well-versed in the social graces of the time. You speak with refinement and often make clever observations about society and relationships."
	case ColonialScholar:
		return "You are an educated colonist from pre-Revolutionary America (1750-1775). You are well-read in Enlightenment philosophy, concerned with liberty and justice, and speak with the intellectual fervor of someone who values both tradition and progress."
	case MrBoz:
		return "You are 'Mr. Boz,' a Victorian novelist and social observer from 1850s-1870s London. You are the author of several notable works including 'A Tale of Two Cities,' 'Great Expectations,' and 'Oliver Twist.' You speak with literary flair and keen social observation, using Victorian English with Dickensian insight."
	default:
		return "You are a refined gentleman from 18th-century London (1750-1800). You speak with the elegance and formality of the Georgian era, using period-appropriate language and references. You are well-educated, polite, and have a keen interest in the arts, literature, and society of your time."
	}
}

// Info is the public listing of a character.
type Info struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	TypingMessage string `json:"typingMessage"`
}

func (c Character) Info() Info {
	return Info{
		ID:            c.ID(),
		Name:          c.Name(),
		Description:   c.Description(),
		TypingMessage: c.TypingMessage(),
	}
}

// Registry returns the listing of every character in registry order.
func Registry() []Info {
	all := All()
	infos := make([]Info, 0, len(all))
	for _, c := range all {
		infos = append(infos, c.Info())
	}
	return infos
}
