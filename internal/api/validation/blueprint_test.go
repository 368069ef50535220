package validation_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daap14/blueprints/internal/api/validation"
)

func intPtr(v int) *int { return &v }

func pt(x, y int) validation.PointInput {
	return validation.PointInput{X: intPtr(x), Y: intPtr(y)}
}

func fields(errs []validation.FieldError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Field
	}
	return out
}

func TestValidateCreateBlueprintRequest_Valid(t *testing.T) {
	errs := validation.ValidateCreateBlueprintRequest(validation.CreateBlueprintRequest{
		Author: "john",
		Name:   "house",
		Points: []validation.PointInput{pt(0, 0), pt(-3, 7)},
	})

	assert.Empty(t, errs)
}

func TestValidateCreateBlueprintRequest_NoPointsIsValid(t *testing.T) {
	errs := validation.ValidateCreateBlueprintRequest(validation.CreateBlueprintRequest{
		Author: "john",
		Name:   "empty",
	})

	assert.Empty(t, errs)
}

func TestValidateCreateBlueprintRequest_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		req    validation.CreateBlueprintRequest
		fields []string
	}{
		{
			name:   "missing author and name",
			req:    validation.CreateBlueprintRequest{},
			fields: []string{"author", "name"},
		},
		{
			name:   "whitespace author",
			req:    validation.CreateBlueprintRequest{Author: "  \t", Name: "house"},
			fields: []string{"author"},
		},
		{
			name:   "name too long",
			req:    validation.CreateBlueprintRequest{Author: "john", Name: strings.Repeat("n", validation.MaxKeyLength+1)},
			fields: []string{"name"},
		},
		{
			name:   "slash in author",
			req:    validation.CreateBlueprintRequest{Author: "jo/hn", Name: "house"},
			fields: []string{"author"},
		},
		{
			name: "points missing coordinates",
			req: validation.CreateBlueprintRequest{
				Author: "john",
				Name:   "house",
				Points: []validation.PointInput{pt(1, 1), {X: intPtr(2)}, {}},
			},
			fields: []string{"points[1].y", "points[2].x", "points[2].y"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := validation.ValidateCreateBlueprintRequest(tt.req)
			assert.Equal(t, tt.fields, fields(errs))
		})
	}
}

func TestValidateCreateBlueprintRequest_MaxLengthCountsRunes(t *testing.T) {
	errs := validation.ValidateCreateBlueprintRequest(validation.CreateBlueprintRequest{
		Author: strings.Repeat("é", validation.MaxKeyLength),
		Name:   "house",
	})

	assert.Empty(t, errs)
}

func TestValidateCreateBlueprintRequest_TooManyPoints(t *testing.T) {
	points := make([]validation.PointInput, validation.MaxPoints+1)

	errs := validation.ValidateCreateBlueprintRequest(validation.CreateBlueprintRequest{
		Author: "john",
		Name:   "house",
		Points: points,
	})

	require.Len(t, errs, 1)
	assert.Equal(t, "points", errs[0].Field)
}

func TestValidateAddPointRequest(t *testing.T) {
	assert.Empty(t, validation.ValidateAddPointRequest(pt(0, 0)))
	assert.Equal(t, []string{"x"}, fields(validation.ValidateAddPointRequest(validation.PointInput{Y: intPtr(1)})))
	assert.Equal(t, []string{"x", "y"}, fields(validation.ValidateAddPointRequest(validation.PointInput{})))
}
