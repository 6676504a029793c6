package earthengine

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode_Graph(t *testing.T) {
	d := testDescriptor(t)
	expr := Encode(d)

	require.Equal(t, "0", expr.Result)
	require.Len(t, expr.Values, 2)

	clip := expr.Values["0"].FunctionInvocationValue
	require.NotNil(t, clip)
	assert.Equal(t, "Image.clip", clip.FunctionName)
	assert.Equal(t, "1", clip.Arguments["geometry"].ValueReference)

	sel := clip.Arguments["input"].FunctionInvocationValue
	require.NotNil(t, sel)
	assert.Equal(t, "Image.select", sel.FunctionName)
	assert.Equal(t, []string{"pr"}, sel.Arguments["bandSelectors"].ConstantValue)

	reduce := sel.Arguments["input"].FunctionInvocationValue
	require.NotNil(t, reduce)
	assert.Equal(t, "reduce.sum", reduce.FunctionName)

	bounded := reduce.Arguments["collection"].FunctionInvocationValue
	assert.Equal(t, "Filter.intersects", bounded.Arguments["filter"].FunctionInvocationValue.FunctionName)

	dated := bounded.Arguments["collection"].FunctionInvocationValue
	rng := dated.Arguments["filter"].FunctionInvocationValue.Arguments["leftValue"].FunctionInvocationValue
	assert.Equal(t, "DateRange", rng.FunctionName)
	start := rng.Arguments["start"].FunctionInvocationValue.Arguments["value"].ConstantValue
	end := rng.Arguments["end"].FunctionInvocationValue.Arguments["value"].ConstantValue
	assert.Equal(t, time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC).UnixMilli(), start)
	assert.Equal(t, time.Date(2020, 7, 1, 0, 0, 0, 0, time.UTC).UnixMilli(), end)

	load := dated.Arguments["collection"].FunctionInvocationValue
	assert.Equal(t, "ImageCollection.load", load.FunctionName)
	assert.Equal(t, "IDAHO_EPSCOR/GRIDMET", load.Arguments["id"].ConstantValue)

	geom := expr.Values["1"].FunctionInvocationValue
	assert.Equal(t, "Collection.geometry", geom.FunctionName)
	eq := geom.Arguments["collection"].FunctionInvocationValue.Arguments["filter"].FunctionInvocationValue
	assert.Equal(t, "NAME", eq.Arguments["leftField"].ConstantValue)
	assert.Equal(t, "California", eq.Arguments["rightValue"].ConstantValue)
}

func TestEncode_MeanWithoutClip(t *testing.T) {
	d := testDescriptor(t)
	d.Reducer = "mean"
	d.Export.Clip = false

	top := Encode(d).Values["0"].FunctionInvocationValue
	assert.Equal(t, "Image.select", top.FunctionName)
	assert.Equal(t, "reduce.mean", top.Arguments["input"].FunctionInvocationValue.FunctionName)
}

func TestEncode_JSONOmitsUnsetFields(t *testing.T) {
	raw, err := json.Marshal(ref("1"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"valueReference":"1"}`, string(raw))

	raw, err = json.Marshal(constant(0))
	require.NoError(t, err)
	assert.JSONEq(t, `{"constantValue":0}`, string(raw))
}
