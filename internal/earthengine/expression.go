package earthengine

import (
	"github.com/i474232898/gridmet-summary/internal/gridmet"
)

// Expression is an Earth Engine computation graph. Result names the entry in
// Values that evaluates to the requested object.
type Expression struct {
	Result string           `json:"result"`
	Values map[string]Value `json:"values"`
}

// Value is one node of an expression graph. Exactly one field is set.
type Value struct {
	ConstantValue           any         `json:"constantValue,omitempty"`
	FunctionInvocationValue *Invocation `json:"functionInvocationValue,omitempty"`
	ValueReference          string      `json:"valueReference,omitempty"`
}

// Invocation calls a server-side algorithm by name.
type Invocation struct {
	FunctionName string           `json:"functionName"`
	Arguments    map[string]Value `json:"arguments"`
}

const (
	resultRef = "0"
	regionRef = "1"
)

func constant(v any) Value {
	return Value{ConstantValue: v}
}

func ref(name string) Value {
	return Value{ValueReference: name}
}

func invoke(fn string, args map[string]Value) Value {
	return Value{FunctionInvocationValue: &Invocation{FunctionName: fn, Arguments: args}}
}

// Encode turns a descriptor into the graph the platform evaluates: the
// collection filtered to the window and region bounds, reduced, narrowed to
// the band and clipped to the region geometry.
func Encode(d gridmet.Descriptor) Expression {
	geometry := invoke("Collection.geometry", map[string]Value{
		"collection": invoke("Collection.filter", map[string]Value{
			"collection": invoke("Collection.loadTable", map[string]Value{
				"tableId": constant(d.Region.Collection),
			}),
			"filter": invoke("Filter.equals", map[string]Value{
				"leftField":  constant(d.Region.Property),
				"rightValue": constant(d.Region.Name),
			}),
		}),
	})

	dated := invoke("Collection.filter", map[string]Value{
		"collection": invoke("ImageCollection.load", map[string]Value{
			"id": constant(d.Collection),
		}),
		"filter": invoke("Filter.dateRangeContains", map[string]Value{
			"leftValue": invoke("DateRange", map[string]Value{
				"start": invoke("Date", map[string]Value{"value": constant(d.Window.Start.UnixMilli())}),
				"end":   invoke("Date", map[string]Value{"value": constant(d.Window.End.UnixMilli())}),
			}),
			"rightField": constant("system:time_start"),
		}),
	})

	bounded := invoke("Collection.filter", map[string]Value{
		"collection": dated,
		"filter": invoke("Filter.intersects", map[string]Value{
			"leftField":  constant(".all"),
			"rightValue": ref(regionRef),
		}),
	})

	image := invoke("Image.select", map[string]Value{
		"input":         invoke("reduce."+string(d.Reducer), map[string]Value{"collection": bounded}),
		"bandSelectors": constant([]string{d.Band}),
	})

	if d.Export.Clip {
		image = invoke("Image.clip", map[string]Value{
			"input":    image,
			"geometry": ref(regionRef),
		})
	}

	return Expression{
		Result: resultRef,
		Values: map[string]Value{
			resultRef: image,
			regionRef: geometry,
		},
	}
}
