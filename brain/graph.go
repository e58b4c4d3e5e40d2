package brain

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/awalterschulze/gographviz"
)

type layerStats struct {
	Index   int
	Kind    string
	Neurons int
	Inputs  int

	Min, Mean, Max float32
}

// ToDot renders the layer stack as a graphviz digraph, one node per
// layer with weight statistics, and a self-edge on the layer that
// carries recurrent state.
func (n *Network) ToDot() string {
	g := gographviz.NewGraph()
	if err := g.SetName("G"); err != nil {
		panic(err)
	}
	g.SetDir(true)

	var buf bytes.Buffer
	for i, l := range n.layers {
		s := layerStats{
			Index:   i,
			Neurons: len(l.acts()),
		}
		switch i {
		case 0:
			s.Kind = "input"
		case len(n.layers) - 1:
			s.Kind = "output"
		default:
			s.Kind = "hidden"
		}

		var recurrent bool
		if i > 0 {
			base := l.ordinary()
			s.Inputs = base.numInputs
			s.Min, s.Mean, s.Max = matStats(base.weights.Data().([]float32))
			_, recurrent = l.(*RecurrentLayer)
			if recurrent {
				s.Kind = "recurrent"
			}
		}

		tmpl.Execute(&buf, s)
		attrs := map[string]string{
			"fontname": "Monaco",
			"shape":    "none",
			"label":    buf.String(),
		}
		g.AddNode("G", fmt.Sprintf("layer%d", i), attrs)
		buf.Reset()

		if i > 0 {
			g.AddEdge(fmt.Sprintf("layer%d", i-1), fmt.Sprintf("layer%d", i), true, nil)
		}
		if recurrent {
			g.AddEdge(fmt.Sprintf("layer%d", i), fmt.Sprintf("layer%d", i), true, nil)
		}
	}
	return g.String()
}

const tmplRaw = `<
<TABLE BORDER="0" CELLBORDER="1" CELLSPACING="0">
<TR><TD>Layer</TD><TD>{{.Index}} ({{.Kind}})</TD></TR>
<TR><TD>Neurons</TD><TD>{{.Neurons}}</TD></TR>
<TR><TD>Inputs</TD><TD>{{.Inputs}}</TD></TR>
<TR><TD>Weights</TD><TD>{{printf "%.3f / %.3f / %.3f" .Min .Mean .Max}}</TD></TR>
</TABLE>
>
`

var tmpl *template.Template

func init() {
	tmpl = template.Must(template.New("layer").Parse(tmplRaw))
}
