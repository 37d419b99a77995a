package domain

import (
	"errors"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// UserRecipeInput carries the raw form fields for a new user recipe.
// Ingredients is multi-line text; ImagePath is the transient location
// handed over by the picker, camera or upload.
type UserRecipeInput struct {
	Title        string `json:"title" form:"title"`
	Ingredients  string `json:"ingredients" form:"ingredients"`
	Instructions string `json:"instructions" form:"instructions"`
	CookingTime  string `json:"cookingTime" form:"cookingTime"`
	Servings     string `json:"servings" form:"servings"`
	ImagePath    string `json:"imagePath" form:"-"`
}

// notBlank rejects values that are empty after trimming whitespace.
var notBlank = validation.By(func(value interface{}) error {
	s, _ := value.(string)
	if strings.TrimSpace(s) == "" {
		return errors.New("cannot be blank")
	}
	return nil
})

// Validate checks that every field is present. The returned error is a
// *ValidationError listing each offending field.
func (in UserRecipeInput) Validate() error {
	err := validation.ValidateStruct(&in,
		validation.Field(&in.Title, validation.Required, notBlank),
		validation.Field(&in.Ingredients, validation.Required, notBlank),
		validation.Field(&in.Instructions, validation.Required, notBlank),
		validation.Field(&in.CookingTime, validation.Required, notBlank),
		validation.Field(&in.Servings, validation.Required, notBlank),
		validation.Field(&in.ImagePath, validation.Required, notBlank),
	)
	if err == nil {
		return nil
	}

	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make(map[string]string, len(verrs))
	for name, ferr := range verrs {
		fields[name] = ferr.Error()
	}
	return &ValidationError{Fields: fields}
}

// ValidationError reports missing or invalid user input. Field keys are the
// JSON names of the offending fields.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return "please fill in all fields and add an image: missing " + strings.Join(names, ", ")
}

// Is lets errors.Is(err, ErrValidation) match any ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
