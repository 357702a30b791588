package gdocai

import (
	"fmt"
	"strings"
)

// Level selects which Document AI layout granularity becomes detections
type Level string

const (
	LevelBlock     Level = "block"
	LevelParagraph Level = "paragraph"
	LevelLine      Level = "line"
	LevelToken     Level = "token"
	LevelEntity    Level = "entity" // Custom extractor entities, hinted with their type
)

// ParseLevel parses a level name; "word" is accepted for tokens
func ParseLevel(s string) (Level, error) {
	switch l := Level(strings.ToLower(strings.TrimSpace(s))); l {
	case LevelBlock, LevelParagraph, LevelLine, LevelToken, LevelEntity:
		return l, nil
	case "word":
		return LevelToken, nil
	case "":
		return LevelBlock, nil
	}
	return "", fmt.Errorf("unknown detection level %q", s)
}

// Source is the detection source name used by this package
const Source = "documentai"
