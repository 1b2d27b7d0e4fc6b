package ideas

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Difficulty rates how demanding an idea is.
type Difficulty string

const (
	Easy   Difficulty = "Easy"
	Medium Difficulty = "Medium"
	Hard   Difficulty = "Hard"
)

// Valid reports whether d is one of the three known ratings.
func (d Difficulty) Valid() bool {
	switch d {
	case Easy, Medium, Hard:
		return true
	}
	return false
}

// ArtIdea is one suggested art project.
type ArtIdea struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Difficulty  Difficulty `json:"difficulty"`
	ColorUsage  string     `json:"colorUsage"`
}

// ideasKey is the key providers are expected to wrap the array in.
const ideasKey = "art_projects"

// ParseIdeas decodes the provider's content. JSON-mode providers must answer
// with an object, so the array usually sits under "art_projects" or some
// other key; a bare array is accepted as well, and an object that is itself
// an idea becomes a one-element list. An object holding no ideas yields an
// empty list.
func ParseIdeas(content string) ([]ArtIdea, error) {
	raw := bytes.TrimSpace([]byte(stripFence(content)))
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty response content")
	}

	if raw[0] == '[' {
		return decodeIdeas(raw)
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("parsing response content: %w", err)
	}

	if v, ok := obj[ideasKey]; ok && isArray(v) {
		return decodeIdeas(v)
	}

	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !isArray(obj[k]) {
			continue
		}
		if list, err := decodeIdeas(obj[k]); err == nil && allTitled(list) {
			return list, nil
		}
	}

	if _, ok := obj["title"]; ok {
		var idea ArtIdea
		if err := json.Unmarshal(raw, &idea); err != nil {
			return nil, fmt.Errorf("parsing idea: %w", err)
		}
		return []ArtIdea{normalize(idea)}, nil
	}

	return []ArtIdea{}, nil
}

// allTitled reports whether list is non-empty and every element carries a
// title, which tells an idea array apart from other arrays in the reply.
func allTitled(list []ArtIdea) bool {
	if len(list) == 0 {
		return false
	}
	for _, idea := range list {
		if strings.TrimSpace(idea.Title) == "" {
			return false
		}
	}
	return true
}

func decodeIdeas(raw json.RawMessage) ([]ArtIdea, error) {
	var list []ArtIdea
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("parsing ideas: %w", err)
	}
	for i := range list {
		list[i] = normalize(list[i])
	}
	return list, nil
}

// normalize maps difficulty spellings like "easy" onto the canonical
// ratings; unknown ratings are kept as given.
func normalize(idea ArtIdea) ArtIdea {
	for _, d := range []Difficulty{Easy, Medium, Hard} {
		if strings.EqualFold(strings.TrimSpace(string(idea.Difficulty)), string(d)) {
			idea.Difficulty = d
			break
		}
	}
	return idea
}

func isArray(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '['
}

// stripFence removes a markdown code fence some providers wrap JSON in.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return s
}
