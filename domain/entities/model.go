package entities

// ModelSpec describes a custom note model to create on the host.
type ModelSpec struct {
	DeckID    *int64   `json:"did,omitempty"`
	SortField *int     `json:"sortf,omitempty" validate:"omitempty,min=0"`
	Name      string   `json:"name" validate:"required"`
	CSS       string   `json:"css"`
	Fields    []string `json:"fields" validate:"required,min=1,dive,required"`
	Cards     []string `json:"cards" validate:"required,min=1,dive,required"`
	Qfmt      []string `json:"qfmt" validate:"eqfield=Cards"`
	Afmt      []string `json:"afmt" validate:"eqfield=Cards"`
}

// CardPreview is the rendered question and answer of one card template.
type CardPreview struct {
	Question string `json:"q"`
	Answer   string `json:"a"`
}

// Built-in model names created by the basic model operations.
const (
	BasicModelName  = "Basic"
	Basic2ModelName = "Basic (and reversed card)"
)
