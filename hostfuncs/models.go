package hostfuncs

import (
	"context"

	"github.com/reglet-dev/ankibridge/domain/entities"
	"github.com/reglet-dev/ankibridge/domain/ports"
)

// ModelBundle returns the note model operations:
// addNewBasicModel, addNewBasic2Model, addNewCustomModel, currentModelId,
// getFieldList, modelList, getModelList, getModelName.
func ModelBundle() Bundle {
	nameMap := shapeAs(func(m map[int64]string) any { return ShapeNameMap(m) })

	return &staticBundle{ops: []Operation{
		op("addNewBasicModel", "Create a front/back model.",
			[]Param{required("name", KindString)},
			func(ctx context.Context, api ports.ContentAPI, args Args) (any, error) {
				return api.AddNewBasicModel(ctx, args.String("name"))
			}),
		op("addNewBasic2Model", "Create a front/back model with a reversed card.",
			[]Param{required("name", KindString)},
			func(ctx context.Context, api ports.ContentAPI, args Args) (any, error) {
				return api.AddNewBasic2Model(ctx, args.String("name"))
			}),
		op("addNewCustomModel", "Create a model from explicit fields and card templates.",
			[]Param{
				required("name", KindString),
				required("fields", KindStringList),
				required("cards", KindStringList),
				required("qfmt", KindStringList),
				required("afmt", KindStringList),
				required("css", KindString),
				optional("did", KindInt),
				optional("sortf", KindInt),
			},
			addNewCustomModel),
		op("currentModelId", "Identifier of the model currently selected on the host.", nil,
			func(ctx context.Context, api ports.ContentAPI, _ Args) (any, error) {
				return api.CurrentModelID(ctx)
			}),
		op("getFieldList", "Field names of a model.",
			[]Param{required("modelId", KindInt)},
			func(ctx context.Context, api ports.ContentAPI, args Args) (any, error) {
				return api.GetFieldList(ctx, args.Int64("modelId"))
			}),
		op("modelList", "All models by id.", nil,
			func(ctx context.Context, api ports.ContentAPI, _ Args) (any, error) {
				return api.ModelList(ctx)
			}).withShape(nameMap),
		op("getModelList", "Models with at least minNumFields fields.",
			[]Param{required("minNumFields", KindInt)},
			func(ctx context.Context, api ports.ContentAPI, args Args) (any, error) {
				return api.GetModelList(ctx, args.Int("minNumFields"))
			}).withShape(nameMap),
		op("getModelName", "Name of a model.",
			[]Param{required("mid", KindInt)},
			func(ctx context.Context, api ports.ContentAPI, args Args) (any, error) {
				return api.GetModelName(ctx, args.Int64("mid"))
			}),
	}}
}

func addNewCustomModel(ctx context.Context, api ports.ContentAPI, args Args) (any, error) {
	spec := entities.ModelSpec{
		Name:   args.String("name"),
		Fields: args.Strings("fields"),
		Cards:  args.Strings("cards"),
		Qfmt:   args.Strings("qfmt"),
		Afmt:   args.Strings("afmt"),
		CSS:    args.String("css"),
		DeckID: args.OptionalInt64("did"),
	}
	if args.Has("sortf") {
		sortf := args.Int("sortf")
		spec.SortField = &sortf
	}
	if err := validateModelSpec("addNewCustomModel", spec); err != nil {
		return nil, err
	}
	return api.AddNewCustomModel(ctx, spec)
}
