package report

import (
	"fmt"
	"strings"

	"github.com/Qalifah/flowpreview/flow"
)

// Render formats the transshipment share and the inbound, outbound and
// absolute modal split of res as plain text. The layout is fixed; callers
// compare it verbatim.
func Render(res flow.Result) string {
	var b strings.Builder

	b.WriteString("\nTransshipment share\n")
	transshipmentTotal := res.Transshipment + res.Hinterland
	writeTransshipmentLine(&b, "transshipment proportion (in TEU):", res.Transshipment, transshipmentTotal)
	writeTransshipmentLine(&b, "hinterland proportion (in TEU):", res.Hinterland, transshipmentTotal)
	b.WriteString("\n")

	writeSplit(&b, "Inbound modal split", res.InboundSplit)
	b.WriteString("\n")
	writeSplit(&b, "Outbound modal split", res.OutboundSplit)
	b.WriteString("\n")
	writeSplit(&b, "Absolute modal split (both inbound and outbound)", res.AbsoluteSplit)
	b.WriteString("(rounding errors might exist)\n")

	return b.String()
}

func writeTransshipmentLine(b *strings.Builder, label string, teu, total float64) {
	fmt.Fprintf(b, "%-35s%10.2f (%s%%)\n", label, teu, percentage(teu, total))
}

func writeSplit(b *strings.Builder, title string, s flow.Split) {
	total := s.Total()
	b.WriteString(title + "\n")
	writeSplitLine(b, "truck", s.Truck, total)
	writeSplitLine(b, "barge", s.Barge, total)
	writeSplitLine(b, "train", s.Train, total)
}

func writeSplitLine(b *strings.Builder, name string, teu, total float64) {
	fmt.Fprintf(b, "%-27s%10.1f (%s%%)\n", name+" proportion (in TEU):", teu, percentage(teu, total))
}

// percentage renders part as a share of total, or "-" when there is
// nothing to share.
func percentage(part, total float64) string {
	if total == 0 {
		return "-"
	}
	return fmt.Sprintf("%.2f", part/total*100)
}
