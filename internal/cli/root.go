package cli

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/nerdneilsfield/faleproxy/internal/config"
	"github.com/nerdneilsfield/faleproxy/internal/document"
	"github.com/nerdneilsfield/faleproxy/internal/logger"
	"github.com/nerdneilsfield/faleproxy/internal/wordswap"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// 全局标志
	cfgFile   string
	debugMode bool
	logLevel  string
)

// NewRootCommand 创建根命令
func NewRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "faleproxy",
		Short: "Fetch web pages and rewrite a word in their visible text",
		Long: `faleproxy fetches a web page, replaces every whole-word occurrence of a
target word (Yale by default) in the page title and body text with a
replacement word (Fale by default) while keeping the original casing, and
returns the rewritten document. Attributes, URLs, scripts and styles are
left untouched.`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// .env 不存在时忽略
			_ = godotenv.Load()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "配置文件路径 (默认 $HOME/.faleproxy.yaml 或 ./.faleproxy.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "启用调试日志")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "日志级别 (debug, info, warn, error)")

	rootCmd.AddCommand(NewServeCommand())
	rootCmd.AddCommand(NewRewriteCommand())
	rootCmd.AddCommand(newVersionCommand(version, commit, buildDate))

	return rootCmd
}

// Run 执行命令并返回进程退出码，错误以红色输出到标准错误
func Run(cmd *cobra.Command) int {
	if err := cmd.Execute(); err != nil {
		color.New(color.FgRed).Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return 1
	}
	return 0
}

func newVersionCommand(version, commit, buildDate string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "faleproxy %s (commit %s, built %s)\n", version, commit, buildDate)
		},
	}
}

// loadRuntime 加载配置并按配置创建日志
func loadRuntime() (*config.Config, *zap.Logger, error) {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return nil, nil, errors.Wrap(err, "load config")
	}

	level := cfg.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	if debugMode || cfg.Debug {
		level = "debug"
	}

	log, err := logger.NewLoggerWithLevel(level)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

// newTransformer 按配置组装文档改写器
func newTransformer(cfg *config.Config, log *zap.Logger) (*document.Transformer, error) {
	rewriter, err := wordswap.New(cfg.Rewrite.Rule)
	if err != nil {
		return nil, err
	}
	return document.NewTransformer(document.NewHTMLCodec(), rewriter, document.Options{
		Sentinel: cfg.Rewrite.Sentinel,
		Logger:   log.Named("document"),
	}), nil
}
