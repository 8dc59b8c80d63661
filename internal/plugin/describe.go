package plugin

// Descriptor is a flattened view of a plugin's metadata.
type Descriptor struct {
	Type        string
	Name        string
	Description string
	Kind        string
	Inputs      []SlotInfo
	Outputs     []SlotInfo
}

// SlotInfo names and types one slot.
type SlotInfo struct {
	Name string
	Type string
}

// Describe collects every metadata answer of p.
func Describe(typeName string, p Plugin) Descriptor {
	d := Descriptor{
		Type:        typeName,
		Name:        p.Information(RequestName, 0),
		Description: p.Information(RequestDescription, 0),
		Kind:        KindOf(p),
	}
	for i := 0; i < p.InputQty(); i++ {
		d.Inputs = append(d.Inputs, SlotInfo{
			Name: p.Information(RequestInputName, i),
			Type: p.Information(RequestInputType, i),
		})
	}
	for i := 0; i < p.OutputQty(); i++ {
		d.Outputs = append(d.Outputs, SlotInfo{
			Name: p.Information(RequestOutputName, i),
			Type: p.Information(RequestOutputType, i),
		})
	}
	return d
}

// KindOf returns "input", "process" or "unknown".
func KindOf(p Plugin) string {
	switch p.(type) {
	case Input:
		return "input"
	case Process:
		return "process"
	default:
		return "unknown"
	}
}
