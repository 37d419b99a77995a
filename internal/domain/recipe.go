package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"strings"
	"time"
)

// RecipeID identifies a recipe. Remote catalog ids are numeric on the wire,
// user recipe ids are strings; both are kept as opaque strings.
type RecipeID string

// UnmarshalJSON accepts both JSON numbers and JSON strings.
func (id *RecipeID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = RecipeID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("recipe id: %w", err)
	}
	*id = RecipeID(n.String())
	return nil
}

// String returns the id as a plain string.
func (id RecipeID) String() string {
	return string(id)
}

// RecipeSummary is a search result from the remote catalog, optionally
// enriched with cooking time and dietary flags from a detail fetch.
// Favorites persist this struct verbatim.
type RecipeSummary struct {
	ID                    RecipeID `json:"id"`
	Title                 string   `json:"title"`
	Image                 string   `json:"image,omitempty"`
	UsedIngredientCount   int      `json:"usedIngredientCount"`
	MissedIngredientCount int      `json:"missedIngredientCount"`
	CookingTimeMinutes    *int     `json:"cookingTimeMinutes,omitempty"`
	Vegetarian            *bool    `json:"vegetarian,omitempty"`
}

// Enriched reports whether the detail fetch contributed anything.
func (r RecipeSummary) Enriched() bool {
	return r.CookingTimeMinutes != nil || r.Vegetarian != nil
}

// SearchResult is what the search orchestration hands to the caller.
// It never carries an error: Degraded is set when the remote search failed
// and Recipes is empty because of it.
type SearchResult struct {
	Query     string          `json:"query"`
	Recipes   []RecipeSummary `json:"recipes"`
	FromCache bool            `json:"fromCache"`
	Degraded  bool            `json:"degraded"`
}

// Ingredient is one line of a remote recipe's ingredient list.
type Ingredient struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Original string  `json:"original"`
	Amount   float64 `json:"amount,omitempty"`
	Unit     string  `json:"unit,omitempty"`
}

// RecipeDetails is the full remote recipe shown on the detail screen.
type RecipeDetails struct {
	ID             RecipeID     `json:"id"`
	Title          string       `json:"title"`
	Image          string       `json:"image,omitempty"`
	ReadyInMinutes int          `json:"readyInMinutes"`
	Servings       int          `json:"servings"`
	Vegetarian     bool         `json:"vegetarian"`
	Ingredients    []Ingredient `json:"extendedIngredients"`
	Instructions   string       `json:"instructions"`
}

// UserRecipe is a locally authored recipe. Image points into durable
// storage, never at the transient picker or camera path.
type UserRecipe struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Ingredients  []string  `json:"ingredients"`
	Instructions string    `json:"instructions"`
	CookingTime  string    `json:"cookingTime"`
	Servings     string    `json:"servings"`
	Image        string    `json:"image"`
	CreatedAt    time.Time `json:"createdAt"`
}

// InstructionsHTML renders the instructions as a single paragraph with line
// breaks preserved.
func (r UserRecipe) InstructionsHTML() string {
	if strings.TrimSpace(r.Instructions) == "" {
		return "<p>No instructions provided</p>"
	}
	text := strings.ReplaceAll(r.Instructions, "\r\n", "\n")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = html.EscapeString(line)
	}
	return "<p>" + strings.Join(lines, "<br/>") + "</p>"
}

// SplitIngredients turns multi-line free text into an ingredient list, one
// entry per non-blank line.
func SplitIngredients(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}

// LoadResult is a decoded collection together with the number of persisted
// entries that failed decoding or validation and were left out.
type LoadResult[T any] struct {
	Records []T `json:"records"`
	Dropped int `json:"dropped"`
	// Corrupt is set when the stored value was not a JSON array at all.
	Corrupt bool `json:"corrupt,omitempty"`
}
