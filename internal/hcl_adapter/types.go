package hcl_adapter

import "github.com/hashicorp/hcl/v2"

// fileRoot is used to decode all top-level blocks of a file.
type fileRoot struct {
	Nodes  []*nodeBlock   `hcl:"node,block"`
	Links  []*linkBlock   `hcl:"link,block"`
	Static []*staticBlock `hcl:"static,block"`
}

type nodeBlock struct {
	ID    string         `hcl:"id,label"`
	Type  string         `hcl:"type"`
	Title string         `hcl:"title,optional"`
	Value hcl.Expression `hcl:"value,optional"`
}

type linkBlock struct {
	ID   *int   `hcl:"id,optional"`
	From string `hcl:"from"`
	To   string `hcl:"to"`
}

type staticBlock struct {
	Slot  string         `hcl:"slot"`
	Value hcl.Expression `hcl:"value"`
}
