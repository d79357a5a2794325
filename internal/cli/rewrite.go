package cli

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/nerdneilsfield/faleproxy/internal/config"
	"github.com/nerdneilsfield/faleproxy/internal/document"
	"github.com/nerdneilsfield/faleproxy/internal/fetch"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// rewrite 命令的标志
	outputPath  string
	showReport  bool
	qualifiers  []string
	replacement string
)

// NewRewriteCommand 创建 rewrite 命令
func NewRewriteCommand() *cobra.Command {
	rewriteCmd := &cobra.Command{
		Use:   "rewrite <url|file|->",
		Short: "Rewrite a single page and print the result",
		Long: `Rewrite a single page. The source may be an http(s) URL, a local HTML
file, or - to read from stdin. The rewritten HTML is written to stdout
unless --output is given; the title and replacement count go to stderr.

Examples:
  faleproxy rewrite https://www.yale.edu/
  faleproxy rewrite page.html --output page.fale.html --report
  cat page.html | faleproxy rewrite -`,
		Args: cobra.ExactArgs(1),
		RunE: runRewrite,
	}

	rewriteCmd.Flags().StringVarP(&outputPath, "output", "o", "", "输出文件路径 (默认标准输出)")
	rewriteCmd.Flags().BoolVar(&showReport, "report", false, "打印每处改写的明细表")
	rewriteCmd.Flags().StringSliceVar(&qualifiers, "qualifier", nil, "只在目标词后跟这些短语时替换，例如 University")
	rewriteCmd.Flags().StringVar(&replacement, "replacement", "", "覆盖配置中的替换词")

	return rewriteCmd
}

func runRewrite(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadRuntime()
	if err != nil {
		return err
	}
	defer func() {
		_ = log.Sync()
	}()

	if cmd.Flags().Changed("qualifier") {
		cfg.Rewrite.Qualifiers = qualifiers
	}
	if cmd.Flags().Changed("replacement") {
		cfg.Rewrite.Replacement = replacement
	}

	transformer, err := newTransformer(cfg, log)
	if err != nil {
		return err
	}

	src, err := readSource(cmd.Context(), cfg, log, args[0], cmd.InOrStdin())
	if err != nil {
		return err
	}

	result, err := transformer.Transform(src)
	if err != nil {
		return errors.Wrap(err, "transform document")
	}

	if outputPath != "" {
		if err := os.WriteFile(outputPath, []byte(result.HTML), 0o644); err != nil {
			return errors.Wrapf(err, "write %s", outputPath)
		}
	} else if _, err := io.WriteString(cmd.OutOrStdout(), result.HTML); err != nil {
		return errors.Wrap(err, "write output")
	}

	printSummary(cmd.ErrOrStderr(), args[0], result)
	if showReport {
		printReport(cmd.ErrOrStderr(), result)
	}
	return nil
}

// readSource 读取 URL、文件或标准输入
func readSource(ctx context.Context, cfg *config.Config, log *zap.Logger, source string, stdin io.Reader) (string, error) {
	switch {
	case source == "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", errors.Wrap(err, "read stdin")
		}
		return string(data), nil
	case strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://"):
		page, err := fetch.New(cfg.Fetch, log.Named("fetch")).Fetch(ctx, source)
		if err != nil {
			return "", errors.Wrap(err, "failed to fetch content")
		}
		return page.Body, nil
	default:
		data, err := os.ReadFile(source)
		if err != nil {
			return "", errors.Wrapf(err, "read %s", source)
		}
		return string(data), nil
	}
}

func printSummary(w io.Writer, source string, result *document.Result) {
	label := color.New(color.FgHiBlack)
	if result.Skipped {
		color.New(color.FgYellow).Fprintf(w, "%s: sentinel page, left unchanged\n", source)
		return
	}

	title := result.Title
	if title == "" {
		title = "(no title)"
	}
	label.Fprint(w, "title: ")
	color.New(color.FgCyan, color.Bold).Fprintln(w, title)
	label.Fprint(w, "replacements: ")
	color.New(color.FgGreen).Fprintf(w, "%d in %d nodes\n", result.Replacements, len(result.Changes))
}

func printReport(w io.Writer, result *document.Result) {
	if len(result.Changes) == 0 {
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Location", "Before", "After", "Count"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Before", WidthMax: 48},
		{Name: "After", WidthMax: 48},
	})
	for i, c := range result.Changes {
		t.AppendRow(table.Row{i + 1, string(c.Location), strings.TrimSpace(c.Before), strings.TrimSpace(c.After), c.Replacements})
	}
	t.AppendFooter(table.Row{"", "", "", "Total", result.Replacements})
	t.Render()
}
