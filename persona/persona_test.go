package persona

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	testCases := []struct {
		id       string
		expected Character
	}{
		{"georgian-gentleman", GeorgianGentleman},
		{"lady-regent", LadyRegent},
		{"colonial-scholar", ColonialScholar},
		{"mr-boz", MrBoz},
		{"", GeorgianGentleman},
		{"pirate-captain", GeorgianGentleman},
		{"Lady-Regent", GeorgianGentleman},
		{" mr-boz", GeorgianGentleman},
	}

	for _, tc := range testCases {
		t.Run(tc.id, func(t *testing.T) {
			assert.Equal(t, tc.expected, Resolve(tc.id))
		})
	}
}

func TestRegistryRoundTrip(t *testing.T) {
	all := All()
	require.Len(t, all, 4)

	seen := make(map[string]bool)
	for _, c := range all {
		assert.Equal(t, c, Resolve(c.ID()))
		assert.True(t, Known(c.ID()))
		assert.NotEmpty(t, c.Name())
		assert.NotEmpty(t, c.Description())
		assert.NotEmpty(t, c.TypingMessage())
		assert.True(t, strings.HasPrefix(c.Persona(), "You are"))
		assert.False(t, seen[c.ID()], "duplicate id %s", c.ID())
		seen[c.ID()] = true
	}
	assert.False(t, Known("nobody"))
}

func TestRegistryListing(t *testing.T) {
	infos := Registry()
	require.Len(t, infos, 4)
	assert.Equal(t, Info{
		ID:            "mr-boz",
		Name:          "Mr. Boz",
		Description:   "A Victorian novelist and social observer (Dickensian character)",
		TypingMessage: "Penning observations...",
	}, infos[3])
}

func TestSystemPrompt(t *testing.T) {
	t.Run("joins global instructions and persona", func(t *testing.T) {
		prompt := SystemPrompt(LadyRegent)
		assert.Equal(t, GlobalInstructions+"\n\n"+LadyRegent.Persona(), prompt)
		assert.True(t, strings.HasPrefix(prompt, "\nGLOBAL INSTRUCTIONS FOR ALL CHARACTERS:\n"))
		assert.True(t, strings.HasSuffix(prompt, "social graces of the time. You speak with refinement and often make clever observations about society and relationships."))
	})

	t.Run("deterministic", func(t *testing.T) {
		assert.Equal(t, SystemPrompt(MrBoz), SystemPrompt(MrBoz))
	})

	t.Run("unknown id uses default persona", func(t *testing.T) {
		assert.Equal(t, SystemPrompt(GeorgianGentleman), SystemPrompt(Resolve("unknown-person")))
		assert.Contains(t, SystemPrompt(Resolve("unknown-person")), "18th-century London (1750-1800)")
	})

	t.Run("every persona carries the global block", func(t *testing.T) {
		for _, c := range All() {
			assert.Contains(t, SystemPrompt(c), "Always end with a follow-up question")
		}
	})
}

func TestRelevantWorks(t *testing.T) {
	t.Run("theme match is case insensitive", func(t *testing.T) {
		matched := RelevantWorks("What do you make of the REVOLUTION in France?")
		require.Len(t, matched, 1)
		assert.Equal(t, "A Tale of Two Cities", matched[0].Title)
	})

	t.Run("character match", func(t *testing.T) {
		matched := RelevantWorks("tell me about miss havisham")
		require.Len(t, matched, 1)
		assert.Equal(t, "Great Expectations", matched[0].Title)
	})

	t.Run("several works", func(t *testing.T) {
		matched := RelevantWorks("poverty and ambition")
		assert.Len(t, matched, 2)
	})

	t.Run("no match", func(t *testing.T) {
		assert.Empty(t, RelevantWorks("the weather today"))
		assert.Empty(t, RelevantWorks("   "))
	})
}

func TestLiteraryContext(t *testing.T) {
	t.Run("only mr boz", func(t *testing.T) {
		assert.Empty(t, LiteraryContext(GeorgianGentleman, "Fagin"))
		assert.Empty(t, LiteraryContext(MrBoz, "the weather today"))
	})

	t.Run("renders matched works", func(t *testing.T) {
		ctx := LiteraryContext(MrBoz, "Was Fagin wicked?")
		assert.True(t, strings.HasPrefix(ctx, "\n\nRELEVANT LITERARY CONTEXT FOR THIS CONVERSATION:\n"))
		assert.Contains(t, ctx, `- "Oliver Twist" (1838):`)
		assert.Contains(t, ctx, "Key characters: Oliver Twist, Fagin")
		assert.NotContains(t, ctx, "Great Expectations")
	})

	t.Run("appended after persona", func(t *testing.T) {
		prompt := SystemPromptWithContext(MrBoz, "sacrifice")
		assert.True(t, strings.HasPrefix(prompt, SystemPrompt(MrBoz)))
		assert.Contains(t, prompt, "A Tale of Two Cities")
	})
}

func TestWorksReturnsCopy(t *testing.T) {
	w := Works()
	w[0].Title = "changed"
	assert.Equal(t, "A Tale of Two Cities", Works()[0].Title)
}
