package app

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/vk/pipegrid/internal/session"
	"github.com/vk/pipegrid/internal/special"
)

// writePlan prints the split groups and the instances they own.
func writePlan(w io.Writer, plan *session.Plan) error {
	data := plan.Data
	fmt.Fprintf(w, "nodes: %d  regions: %d  sync nodes: %d  loops: %d  instances: %d\n\n",
		plan.Graph.Len(), len(data.Regions), len(data.Sync.SyncNodes), len(data.Loops), len(plan.Pipelines))

	groupIndex := make(map[*special.SyncSplitGroup]int, len(data.Sync.NodeGroups))
	for i, g := range data.Sync.NodeGroups {
		groupIndex[g] = i
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "GROUP\tKIND\tSYNC\tREGION\tSTARTS AT\tPIPES\tOWNER\tCALLED BY")
	for i, g := range data.Sync.NodeGroups {
		kind, sync := "input", "-"
		if !g.Input {
			kind, sync = "sync", strconv.Itoa(g.SyncNodeID)
		}
		owner := "self"
		if g.Linked() != nil {
			owner = strconv.Itoa(groupIndex[g.Owner()])
		}
		calledBy := "-"
		if g.CalledBy >= 0 {
			calledBy = strconv.Itoa(g.CalledBy)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			i, kind, sync, orDash(g.Region), joinInts(g.Dependents), g.RequiredPipes, owner, calledBy)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(plan.Pipelines) == 0 {
		return nil
	}
	fmt.Fprintln(w)
	tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "INSTANCE\tNODES\tITEMS")
	for _, p := range plan.Pipelines {
		inputs := make([]int, 0, len(p.Items))
		for id := range p.Items {
			inputs = append(inputs, id)
		}
		slices.Sort(inputs)
		items := make([]string, 0, len(inputs))
		for _, id := range inputs {
			items = append(items, fmt.Sprintf("%d:%d", id, p.Items[id]))
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", p.ID, joinInts(p.Nodes), strings.Join(items, " "))
	}
	return tw.Flush()
}

func orDash(v int) string {
	if v < 0 {
		return "-"
	}
	return strconv.Itoa(v)
}

func joinInts(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ",")
}
