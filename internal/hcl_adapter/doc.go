// Package hcl_adapter loads graph descriptions written in HCL, either in
// native syntax (.hcl) or in HCL's JSON syntax (.json), into a config.Model.
//
// A description is made of three block types:
//
//	node "0" {
//	  type  = "input.files"
//	  title = "Sources"
//	  value = "./data/*.txt"
//	}
//
//	link {
//	  from = "0.0"
//	  to   = "1.0"
//	}
//
//	static {
//	  slot  = "1.0"
//	  value = "fixed"
//	}
//
// Node and static values may be any HCL expression. The only variable is
// env, the process environment (env.HOME), and a subset of the cty standard
// functions is available (upper, join, format, jsonencode, ...). Strings,
// numbers and bools become their string form; lists, tuples, maps and
// objects become JSON text.
package hcl_adapter
