package plugin

// Info is a table-driven implementation of Plugin.Information that plugins
// can embed.
type Info struct {
	Name        string
	Description string
	Inputs      []SlotInfo
	Outputs     []SlotInfo
}

// InputQty returns the number of declared input slots.
func (i Info) InputQty() int { return len(i.Inputs) }

// OutputQty returns the number of declared output slots.
func (i Info) OutputQty() int { return len(i.Outputs) }

// Information answers metadata requests from the table.
func (i Info) Information(req Request, slot int) string {
	switch req {
	case RequestName:
		return i.Name
	case RequestDescription:
		return i.Description
	case RequestInputName:
		return slotField(i.Inputs, slot, false)
	case RequestInputType:
		return slotField(i.Inputs, slot, true)
	case RequestOutputName:
		return slotField(i.Outputs, slot, false)
	case RequestOutputType:
		return slotField(i.Outputs, slot, true)
	}
	return ""
}

func slotField(slots []SlotInfo, idx int, typ bool) string {
	if idx < 0 || idx >= len(slots) {
		return ""
	}
	if typ {
		return slots[idx].Type
	}
	return slots[idx].Name
}
