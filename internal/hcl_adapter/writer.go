package hcl_adapter

import (
	"io"
	"strconv"

	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/pipegrid/internal/config"
)

// Write renders m in native syntax: nodes ordered by id, then links and
// static values in model order. Values are written as string literals, so
// loading the output yields the same model.
func Write(w io.Writer, m *config.Model) error {
	f := hclwrite.NewEmptyFile()
	body := f.Body()
	first := true
	block := func(typeName string, labels ...string) *hclwrite.Body {
		if !first {
			body.AppendNewline()
		}
		first = false
		return body.AppendNewBlock(typeName, labels).Body()
	}

	for _, n := range m.SortedNodes() {
		b := block("node", strconv.Itoa(n.ID))
		b.SetAttributeValue("type", cty.StringVal(n.Type))
		if n.Title != "" {
			b.SetAttributeValue("title", cty.StringVal(n.Title))
		}
		if n.Value != "" {
			b.SetAttributeValue("value", cty.StringVal(n.Value))
		}
	}
	for _, l := range m.Links {
		b := block("link")
		b.SetAttributeValue("id", cty.NumberIntVal(int64(l.ID)))
		b.SetAttributeValue("from", cty.StringVal(l.From.String()))
		b.SetAttributeValue("to", cty.StringVal(l.To.String()))
	}
	for _, s := range m.Static {
		b := block("static")
		b.SetAttributeValue("slot", cty.StringVal(s.Slot.String()))
		b.SetAttributeValue("value", cty.StringVal(string(s.Value)))
	}

	_, err := f.WriteTo(w)
	return err
}
