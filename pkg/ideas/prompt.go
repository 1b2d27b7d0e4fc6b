package ideas

import (
	"fmt"
	"strings"
)

// DefaultColors is used when a request names no colors.
var DefaultColors = []string{"green", "blue", "brown"}

// HarmonySchemes are the color relationships an idea may be built on.
var HarmonySchemes = []string{
	"Monochromatic",
	"Analogous",
	"Complementary",
	"Split Complementary",
	"Triadic",
	"Tetradic",
	"Square",
}

// NeutralColors cannot carry a monochromatic idea on their own.
var NeutralColors = []string{"brown", "black", "white", "gray"}

// IdeaCount is how many ideas the provider is asked for.
const IdeaCount = 10

// SystemPrompt establishes the assistant persona.
const SystemPrompt = "You are a creative art assistant that provides ideas for marker art projects."

// BuildInstruction returns the user instruction for the given colors.
func BuildInstruction(colors []string) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("I have markers in these colors: %s.\n\n", strings.Join(colors, ", ")))
	sb.WriteString(fmt.Sprintf("Please generate %d creative art ideas that would work well with these colors.\n", IdeaCount))
	sb.WriteString("For each idea, provide:\n")
	sb.WriteString("1. A title\n")
	sb.WriteString("2. A visually detailed description that can be fed directly into an image generator. ")
	sb.WriteString("Name the artistic style, the lighting, the perspective and the composition.\n")
	sb.WriteString("3. A difficulty rating (Easy, Medium, Hard). Harder ideas may use more colors: ")
	sb.WriteString("every idea uses at least 3 and at most 10 colors.\n")
	sb.WriteString("4. How the specific colors could be used effectively (colorUsage)\n\n")

	sb.WriteString("Every idea must follow exactly one of these color harmony schemes: ")
	sb.WriteString(strings.Join(HarmonySchemes, ", "))
	sb.WriteString(".\n")
	sb.WriteString(fmt.Sprintf("Do not suggest a Monochromatic idea when the only color is a neutral (%s).\n",
		strings.Join(NeutralColors, ", ")))
	sb.WriteString("Do not suggest abstract pattern ideas.\n\n")

	sb.WriteString("Return the response as a JSON array of objects with exactly these fields: ")
	sb.WriteString("title, description, difficulty, colorUsage.")

	return sb.String()
}

// resolveColors drops blank names and falls back to DefaultColors.
func resolveColors(names []string) ([]string, bool) {
	colors := make([]string, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			colors = append(colors, n)
		}
	}
	if len(colors) == 0 {
		return append([]string(nil), DefaultColors...), true
	}
	return colors, false
}
