package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/panbanda/focal/internal/output"
	"github.com/panbanda/focal/internal/service/analysis"
	"github.com/panbanda/focal/pkg/callgraph"
	"github.com/panbanda/focal/pkg/models"
)

func callgraphCmd() *cli.Command {
	methodFlags := []cli.Flag{
		&cli.StringFlag{Name: "class", Usage: "Fully qualified class name"},
		&cli.StringFlag{Name: "signature", Aliases: []string{"s"}, Usage: "Method signature"},
	}

	return &cli.Command{
		Name:    "callgraph",
		Aliases: []string{"cg"},
		Usage:   "Query the call graph built from a dependency feed",
		Subcommands: []*cli.Command{
			{
				Name:      "json",
				Usage:     "Print every call graph edge",
				ArgsUsage: "<feed>",
				Action:    runGraphJSON,
			},
			{
				Name:      "callers",
				Usage:     "List the methods that call a method",
				ArgsUsage: "<feed>",
				Flags:     methodFlags,
				Action:    runCallers,
			},
			{
				Name:      "callees",
				Usage:     "List the methods a method calls",
				ArgsUsage: "<feed>",
				Flags:     methodFlags,
				Action:    runCallees,
			},
			{
				Name:      "class",
				Usage:     "List call edges leaving a class",
				ArgsUsage: "<feed>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "class", Usage: "Fully qualified class name"},
					&cli.StringFlag{Name: "method", Aliases: []string{"m"}, Usage: "Restrict to one method signature"},
				},
				Action: runClassGraph,
			},
			{
				Name:      "cycles",
				Usage:     "Report recursive and mutually recursive methods",
				ArgsUsage: "<feed>",
				Action:    runCycles,
			},
		},
	}
}

// loadGraph builds the graph for the feed named by the first argument.
func loadGraph(c *cli.Context) (*callgraph.Graph, *output.Formatter, error) {
	paths := getPaths(c)
	if c.Args().Len() == 0 || len(paths) != 1 {
		return nil, nil, errors.New("exactly one feed file is required")
	}

	loaded, err := loadConfig(c)
	if err != nil {
		return nil, nil, err
	}
	cfg := loaded.Config
	g, err := analysis.New(analysis.WithConfig(cfg)).LoadGraph(c.Context, paths[0])
	if err != nil {
		return nil, nil, err
	}
	formatter, err := newFormatter(c, cfg)
	if err != nil {
		return nil, nil, err
	}
	return g, formatter, nil
}

func methodArgs(c *cli.Context) (class, signature string, err error) {
	class = getTrailingFlag(c, "class", "", "")
	signature = getTrailingFlag(c, "signature", "s", "")
	if class == "" || signature == "" {
		return "", "", errors.New("--class and --signature are required")
	}
	return class, signature, nil
}

func runGraphJSON(c *cli.Context) error {
	g, formatter, err := loadGraph(c)
	if err != nil {
		return err
	}
	defer formatter.Close()

	data, err := g.JSON()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(formatter.Writer(), string(data))
	return err
}

func runCallers(c *cli.Context) error {
	class, signature, err := methodArgs(c)
	if err != nil {
		return err
	}
	g, formatter, err := loadGraph(c)
	if err != nil {
		return err
	}
	defer formatter.Close()

	result := g.Callers(class, signature)
	if result.TargetMethod == nil && !formatter.Format().Structured() {
		formatter.Warning("%s#%s is not in the call graph", class, signature)
	}
	rows := make([][]string, 0, len(result.CallerDetails))
	for _, d := range result.CallerDetails {
		rows = append(rows, []string{d.CallerMethod.Class, d.CallerMethod.Signature(), joinLines(d.CallingLines)})
	}
	return formatter.Output(output.NewTable(
		"Callers of "+signature,
		[]string{"Class", "Method", "Lines"},
		rows,
		nil,
		result,
	))
}

func runCallees(c *cli.Context) error {
	class, signature, err := methodArgs(c)
	if err != nil {
		return err
	}
	g, formatter, err := loadGraph(c)
	if err != nil {
		return err
	}
	defer formatter.Close()

	result := g.Callees(class, signature)
	if result.SourceMethod == nil && !formatter.Format().Structured() {
		formatter.Warning("%s#%s is not in the call graph", class, signature)
	}
	rows := make([][]string, 0, len(result.CalleeDetails))
	for _, d := range result.CalleeDetails {
		rows = append(rows, []string{d.CalleeMethod.Class, d.CalleeMethod.Signature(), joinLines(d.CallingLines)})
	}
	return formatter.Output(output.NewTable(
		"Callees of "+signature,
		[]string{"Class", "Method", "Lines"},
		rows,
		nil,
		result,
	))
}

func runClassGraph(c *cli.Context) error {
	class := getTrailingFlag(c, "class", "", "")
	if class == "" {
		return errors.New("--class is required")
	}
	method := getTrailingFlag(c, "method", "m", "")

	g, formatter, err := loadGraph(c)
	if err != nil {
		return err
	}
	defer formatter.Close()

	edges := g.ClassCallGraph(class, method)
	if edges == nil {
		edges = []models.ClassEdge{}
	}
	rows := make([][]string, 0, len(edges))
	for _, e := range edges {
		rows = append(rows, []string{e.Source.Signature(), e.Target.Class, e.Target.Signature()})
	}
	return formatter.Output(output.NewTable(
		"Call edges from "+class,
		[]string{"Method", "Target Class", "Target Method"},
		rows,
		[]string{"Total", "", strconv.Itoa(len(edges))},
		edges,
	))
}

type cyclesView struct {
	Cyclic        bool       `json:"cyclic" toon:"cyclic"`
	Components    [][]string `json:"components" toon:"components"`
	SelfRecursive []string   `json:"self_recursive" toon:"self_recursive"`
}

func newCyclesView(report models.CycleReport) cyclesView {
	v := cyclesView{
		Components:    make([][]string, len(report.Components)),
		SelfRecursive: keyStrings(report.SelfRecursive),
	}
	for i, comp := range report.Components {
		v.Components[i] = keyStrings(comp)
	}
	v.Cyclic = len(v.Components) > 0 || len(v.SelfRecursive) > 0
	return v
}

func keyStrings(keys []models.NodeKey) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = k.String()
	}
	return out
}

func runCycles(c *cli.Context) error {
	g, formatter, err := loadGraph(c)
	if err != nil {
		return err
	}
	defer formatter.Close()

	view := newCyclesView(g.Cycles())
	if formatter.Format().Structured() {
		return formatter.Output(view)
	}

	var sections []output.Section
	for i, comp := range view.Components {
		sections = append(sections, output.Section{
			Title:   fmt.Sprintf("Cycle %d (%d methods)", i+1, len(comp)),
			Content: strings.Join(comp, "\n"),
		})
	}
	if len(view.SelfRecursive) > 0 {
		sections = append(sections, output.Section{
			Title:   "Self-recursive",
			Content: strings.Join(view.SelfRecursive, "\n"),
		})
	}

	content := "No recursion found."
	if view.Cyclic {
		content = fmt.Sprintf("%d cycles, %d self-recursive methods", len(view.Components), len(view.SelfRecursive))
	}
	return formatter.Output(&output.Section{
		Title:    "Recursion",
		Content:  content,
		Sections: sections,
	})
}

func joinLines(lines []int) string {
	parts := make([]string, len(lines))
	for i, l := range lines {
		parts[i] = strconv.Itoa(l)
	}
	return strings.Join(parts, ", ")
}
