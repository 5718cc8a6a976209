package flashcards

import (
	"encoding/json"

	"prism-workers/internal/common/validation"
	"prism-workers/internal/llm"
)

type ParseStatus int

const (
	Unparseable ParseStatus = iota
	Parsed
)

func (s ParseStatus) String() string {
	if s == Parsed {
		return "parsed"
	}
	return "unparseable"
}

// CardDraft is one question/answer pair as the model returned it. Index is
// its position in the model's array, invalid entries included.
type CardDraft struct {
	Index    int
	Question string
	Answer   string
}

type ParseResult struct {
	Status ParseStatus
	Cards  []CardDraft
	// Skipped counts array entries that failed the card schema.
	Skipped int
}

var cardSchema = map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"question", "answer"},
	"properties": map[string]interface{}{
		"question": map[string]interface{}{"type": "string"},
		"answer":   map[string]interface{}{"type": "string"},
	},
}

// Parse decodes a model reply. The whole reply is tried first; failing that,
// the widest {...} span mentioning "flashcards" is tried.
func Parse(raw string) ParseResult {
	var doc interface{}
	if err := json.Unmarshal([]byte(llm.StripFences(raw)), &doc); err == nil {
		switch v := doc.(type) {
		case map[string]interface{}:
			return drafts(v["flashcards"])
		case []interface{}:
			return drafts(v)
		default:
			return ParseResult{Status: Parsed}
		}
	}

	span, ok := llm.SalvageObject(raw, "flashcards")
	if !ok {
		return ParseResult{Status: Unparseable}
	}
	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(span), &obj); err != nil {
		return ParseResult{Status: Unparseable}
	}
	return drafts(obj["flashcards"])
}

func drafts(v interface{}) ParseResult {
	res := ParseResult{Status: Parsed}
	items, ok := v.([]interface{})
	if !ok {
		return res
	}

	for i, item := range items {
		check, err := validation.Document(cardSchema, item)
		if err != nil || !check.Valid {
			res.Skipped++
			continue
		}
		card := item.(map[string]interface{})
		res.Cards = append(res.Cards, CardDraft{
			Index:    i,
			Question: card["question"].(string),
			Answer:   card["answer"].(string),
		})
	}
	return res
}
