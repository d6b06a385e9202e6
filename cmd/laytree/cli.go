package main

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/npillmayer/laytree/layoutdbg"
	"github.com/npillmayer/laytree/style"
	"github.com/npillmayer/laytree/tree"
	"github.com/npillmayer/tyse/core/dimen"
)

// cli holds shared state for all commands.
type cli struct {
	out     io.Writer
	logger  *log.Logger
	verbose bool
	config  string
}

func newCLI(out, logw io.Writer) *cli {
	return &cli{
		out: out,
		logger: log.NewWithOptions(logw, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.00",
			Level:           log.InfoLevel,
		}),
	}
}

func (c *cli) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "laytree",
		Short:        "laytree measures layout trees",
		Long:         `laytree builds layout trees, measures them on a layout worker and prints the resulting boxes.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := "error"
			if c.verbose {
				c.logger.SetLevel(log.DebugLevel)
				level = "debug"
			}
			return tree.SetTraceLevel(level)
		},
	}
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging and tracing")
	root.PersistentFlags().StringVarP(&c.config, "config", "c", "", "TOML file with tree options")
	root.AddCommand(c.demoCommand())
	root.AddCommand(c.treeCommand())
	return root
}

// newTree creates a layout tree, configured from the --config file if
// one is given.
func (c *cli) newTree() (*tree.Tree, error) {
	var opts []tree.Option
	if c.config != "" {
		f, err := os.Open(c.config)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		if opts, err = tree.LoadConfig(f); err != nil {
			return nil, fmt.Errorf("%s: %w", c.config, err)
		}
		c.logger.Debug("loaded configuration", "file", c.config, "options", len(opts))
	}
	if c.verbose {
		opts = append(opts, tree.TraceLevel("debug"))
	}
	t := tree.New(opts...)
	c.logger.Debug("created layout tree", "id", t.ID())
	return t, nil
}

// --- demo ------------------------------------------------------------------

func (c *cli) demoCommand() *cobra.Command {
	var size int
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Measure a single square leaf under max-content",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := c.newTree()
			if err != nil {
				return err
			}
			defer t.Close()
			side := dimen.DU(size) * dimen.PT
			leaf, err := t.Insert(style.Sized(side, side))
			if err != nil {
				return err
			}
			changes, err := leaf.Measure(cmd.Context(), style.Unconstrained())
			if err != nil {
				return err
			}
			c.logger.Info("measured leaf", "node", leaf.ID(), "changes", len(changes))
			fmt.Fprintf(c.out, "node %d: %s\n", leaf.ID(), leaf.Layout())
			return nil
		},
	}
	cmd.Flags().IntVar(&size, "size", 100, "side length of the leaf in points")
	return cmd
}

// --- tree ------------------------------------------------------------------

func (c *cli) treeCommand() *cobra.Command {
	var children, depth int
	var column bool
	var width, height int
	var dot string
	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Build a nested tree, measure it and print its boxes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if children < 1 || depth < 1 {
				return fmt.Errorf("children and depth must be positive")
			}
			if width < 0 || height < 0 || (width > 0) != (height > 0) {
				return fmt.Errorf("width and height must be given together and be positive")
			}
			t, err := c.newTree()
			if err != nil {
				return err
			}
			defer t.Close()
			dir := style.Row
			if column {
				dir = style.Column
			}
			root, err := buildNested(t, children, depth, dir)
			if err != nil {
				return err
			}
			space := style.Unconstrained()
			if width > 0 && height > 0 {
				space = style.Fixed(dimen.DU(width)*dimen.PT, dimen.DU(height)*dimen.PT)
			}
			changes, err := root.Measure(cmd.Context(), space)
			if err != nil {
				return err
			}
			c.logger.Info("measured tree", "nodes", t.Len(), "changes", len(changes), "space", space.String())
			fmt.Fprint(c.out, layoutdbg.Print(root))
			if dot != "" {
				f, err := os.Create(dot)
				if err != nil {
					return err
				}
				defer f.Close()
				if err := layoutdbg.ToGraphViz(root, f); err != nil {
					return err
				}
				c.logger.Info("wrote GraphViz diagram", "file", dot)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&children, "children", 3, "number of children per inner node")
	cmd.Flags().IntVar(&depth, "depth", 2, "number of levels below the root")
	cmd.Flags().BoolVar(&column, "column", false, "stack children vertically")
	cmd.Flags().IntVar(&width, "width", 0, "definite width in points (requires --height)")
	cmd.Flags().IntVar(&height, "height", 0, "definite height in points (requires --width)")
	cmd.Flags().StringVar(&dot, "dot", "", "write a GraphViz diagram to this file")
	return cmd
}

// buildNested creates a tree of the given depth where each inner node has
// the given number of children. Leaves are squares of 10 points, inner
// nodes have 2 points of padding and gap.
func buildNested(t *tree.Tree, children, depth int, dir style.Direction) (*tree.Node, error) {
	if depth == 0 {
		return t.Insert(style.Sized(10*dimen.PT, 10*dimen.PT))
	}
	s := style.Default()
	s.Direction = dir
	s.Padding = style.EdgeAll(2 * dimen.PT)
	s.Gap = 2 * dimen.PT
	node, err := t.Insert(s)
	if err != nil {
		return nil, err
	}
	for i := 0; i < children; i++ {
		ch, err := buildNested(t, children, depth-1, dir)
		if err != nil {
			return nil, err
		}
		if err := node.AddChild(ch); err != nil {
			return nil, err
		}
	}
	return node, nil
}
