package hcl_adapter

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	ctyjson "github.com/zclconf/go-cty/cty/json"

	"github.com/vk/pipegrid/internal/ctxlog"
)

// isExprDefined checks if an HCL expression was actually present in the source
// code. The HCL decoder populates omitted optional fields with zero-width
// expression objects, so a nil check is insufficient.
func isExprDefined(ctx context.Context, expr hcl.Expression, attrName string) bool {
	if expr == nil {
		return false
	}
	exprRange := expr.Range()
	isDefined := exprRange.End.Byte > exprRange.Start.Byte
	ctxlog.FromContext(ctx).Debug("Checking if HCL attribute was explicitly defined.",
		"attribute", attrName,
		"hcl_range", exprRange.String(),
		"is_defined", isDefined,
	)
	return isDefined
}

// exprToString evaluates an expression and renders it as the opaque string
// handed to plugins.
func exprToString(ctx context.Context, expr hcl.Expression, evalCtx *hcl.EvalContext, attrName string) (string, error) {
	if !isExprDefined(ctx, expr, attrName) {
		return "", nil
	}
	val, diags := expr.Value(evalCtx)
	if diags.HasErrors() {
		return "", diags
	}
	return valueToString(val)
}

// valueToString renders a cty value: primitives as their string form,
// collections and structural values as JSON.
func valueToString(val cty.Value) (string, error) {
	if val.IsNull() {
		return "", nil
	}
	if !val.IsWhollyKnown() {
		return "", fmt.Errorf("value is not fully known")
	}
	if val.Type().IsPrimitiveType() {
		s, err := convert.Convert(val, cty.String)
		if err != nil {
			return "", err
		}
		return s.AsString(), nil
	}
	b, err := ctyjson.Marshal(val, val.Type())
	if err != nil {
		return "", fmt.Errorf("encoding value as JSON: %w", err)
	}
	return string(b), nil
}
