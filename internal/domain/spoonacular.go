package domain

// APIRecipeMatch is one entry of the remote findByIngredients response
type APIRecipeMatch struct {
	ID                    RecipeID `json:"id"`
	Title                 string   `json:"title"`
	Image                 string   `json:"image"`
	ImageType             string   `json:"imageType,omitempty"`
	UsedIngredientCount   int      `json:"usedIngredientCount"`
	MissedIngredientCount int      `json:"missedIngredientCount"`
	Likes                 int      `json:"likes,omitempty"`
}

// APIIngredient is one entry of extendedIngredients in the information response
type APIIngredient struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Original string  `json:"original"`
	Amount   float64 `json:"amount"`
	Unit     string  `json:"unit"`
}

// APIRecipeInformation represents the remote recipe information response
type APIRecipeInformation struct {
	ID                  RecipeID        `json:"id"`
	Title               string          `json:"title"`
	Image               string          `json:"image"`
	ReadyInMinutes      int             `json:"readyInMinutes"`
	Servings            int             `json:"servings"`
	Vegetarian          bool            `json:"vegetarian"`
	Vegan               bool            `json:"vegan"`
	GlutenFree          bool            `json:"glutenFree"`
	ExtendedIngredients []APIIngredient `json:"extendedIngredients"`
	Instructions        string          `json:"instructions"`
	SourceURL           string          `json:"sourceUrl,omitempty"`
}
