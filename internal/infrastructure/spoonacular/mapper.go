package spoonacular

import (
	"github.com/ready2cook/backend/internal/domain"
)

// MapToSummary converts a findByIngredients match to a RecipeSummary
func MapToSummary(match domain.APIRecipeMatch) domain.RecipeSummary {
	return domain.RecipeSummary{
		ID:                    match.ID,
		Title:                 match.Title,
		Image:                 match.Image,
		UsedIngredientCount:   match.UsedIngredientCount,
		MissedIngredientCount: match.MissedIngredientCount,
	}
}

// Enrich merges cooking time and the vegetarian flag from a detail fetch
// into summary. A nil info leaves summary unchanged.
func Enrich(summary domain.RecipeSummary, info *domain.APIRecipeInformation) domain.RecipeSummary {
	if info == nil {
		return summary
	}
	minutes := info.ReadyInMinutes
	vegetarian := info.Vegetarian
	summary.CookingTimeMinutes = &minutes
	summary.Vegetarian = &vegetarian
	if summary.Image == "" {
		summary.Image = info.Image
	}
	return summary
}

// MapToDetails converts a full information response to RecipeDetails
func MapToDetails(info *domain.APIRecipeInformation) *domain.RecipeDetails {
	ingredients := make([]domain.Ingredient, 0, len(info.ExtendedIngredients))
	for _, ing := range info.ExtendedIngredients {
		ingredients = append(ingredients, domain.Ingredient{
			ID:       ing.ID,
			Name:     ing.Name,
			Original: ing.Original,
			Amount:   ing.Amount,
			Unit:     ing.Unit,
		})
	}

	return &domain.RecipeDetails{
		ID:             info.ID,
		Title:          info.Title,
		Image:          info.Image,
		ReadyInMinutes: info.ReadyInMinutes,
		Servings:       info.Servings,
		Vegetarian:     info.Vegetarian,
		Ingredients:    ingredients,
		Instructions:   info.Instructions,
	}
}
