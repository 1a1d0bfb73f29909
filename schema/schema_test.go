package schema_test

import (
	"context"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drblury/restweaver/schema"
)

func fooNumber() *schema.OpenAPISchema {
	return schema.Object(map[string]*openapi3.Schema{
		"foo": openapi3.NewFloat64Schema(),
	}, "foo")
}

func TestKinValidator_Validate(t *testing.T) {
	t.Parallel()

	v := schema.NewValidator()
	ctx := context.Background()

	t.Run("nil schema accepts anything", func(t *testing.T) {
		t.Parallel()
		res := v.Validate(ctx, nil, map[string]any{"a": 1})
		assert.True(t, res.Valid)
		assert.Empty(t, res.Errors)
	})

	t.Run("valid value is normalised", func(t *testing.T) {
		t.Parallel()
		res := v.Validate(ctx, fooNumber(), map[string]any{"foo": 2})
		require.True(t, res.Valid, "errors: %v", res.Errors)
		assert.Equal(t, map[string]any{"foo": float64(2)}, res.Value)
	})

	t.Run("wrong type reports path", func(t *testing.T) {
		t.Parallel()
		res := v.Validate(ctx, fooNumber(), map[string]any{"foo": "bar"})
		require.False(t, res.Valid)
		require.Len(t, res.Errors, 1)
		assert.Equal(t, "/foo", res.Errors[0].Path)
		assert.NotEmpty(t, res.Errors[0].Message)
		assert.Nil(t, res.Value)
	})

	t.Run("missing required property", func(t *testing.T) {
		t.Parallel()
		res := v.Validate(ctx, fooNumber(), map[string]any{})
		require.False(t, res.Valid)
		require.NotEmpty(t, res.Errors)
		assert.Contains(t, res.Errors[0].Message, "foo")
	})

	t.Run("collects every failure", func(t *testing.T) {
		t.Parallel()
		s := schema.Object(map[string]*openapi3.Schema{
			"a": openapi3.NewStringSchema(),
			"b": openapi3.NewBoolSchema(),
		}, "a", "b")
		res := v.Validate(ctx, s, map[string]any{"a": 1, "b": "x"})
		require.False(t, res.Valid)
		assert.Len(t, res.Errors, 2)
	})

	t.Run("array of strings", func(t *testing.T) {
		t.Parallel()
		res := v.Validate(ctx, schema.ArrayOf(openapi3.NewStringSchema()), []string{"All good!"})
		require.True(t, res.Valid)
		assert.Equal(t, []any{"All good!"}, res.Value)
	})

	t.Run("deterministic issues", func(t *testing.T) {
		t.Parallel()
		first := v.Validate(ctx, fooNumber(), map[string]any{"foo": "bar"})
		second := v.Validate(ctx, fooNumber(), map[string]any{"foo": "bar"})
		assert.Equal(t, first.Errors, second.Errors)
	})
}

func TestValidatorFunc(t *testing.T) {
	t.Parallel()

	called := false
	var v schema.Validator = schema.ValidatorFunc(func(_ context.Context, _ schema.Schema, value any) schema.Result {
		called = true
		return schema.Invalid(schema.Issue{Path: "/x", Message: "nope"})
	})

	res := v.Validate(context.Background(), nil, 1)
	assert.True(t, called)
	assert.False(t, res.Valid)
	assert.Equal(t, []schema.Issue{{Path: "/x", Message: "nope"}}, res.Errors)
}

type createTodo struct {
	Name     string  `json:"name"`
	Priority int     `json:"priority,omitempty"`
	Note     *string `json:"note"`
}

func TestFor(t *testing.T) {
	t.Parallel()

	s, err := schema.For[createTodo]()
	require.NoError(t, err)

	ref := s.OpenAPI()
	require.NotNil(t, ref)
	require.NotNil(t, ref.Value)
	assert.Contains(t, ref.Value.Properties, "name")
	assert.Contains(t, ref.Value.Properties, "priority")
	assert.Equal(t, []string{"name"}, ref.Value.Required)

	v := schema.NewValidator()
	assert.True(t, v.Validate(context.Background(), s, map[string]any{"name": "x"}).Valid)
	assert.False(t, v.Validate(context.Background(), s, map[string]any{"priority": 1}).Valid)
}

func TestMustForPanicsOnlyOnError(t *testing.T) {
	t.Parallel()

	assert.NotPanics(t, func() { schema.MustFor[createTodo]() })
}
