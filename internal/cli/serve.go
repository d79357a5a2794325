package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/nerdneilsfield/faleproxy/internal/fetch"
	"github.com/nerdneilsfield/faleproxy/internal/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var servePort int

// NewServeCommand 创建 serve 命令
func NewServeCommand() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP relay",
		Long: `Run the HTTP relay. The web UI is served at / and pages are fetched and
rewritten through POST /fetch with a {"url": "..."} body.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadRuntime()
			if err != nil {
				return err
			}
			defer func() {
				_ = log.Sync()
			}()

			if cmd.Flags().Changed("port") {
				cfg.Server.Port = servePort
			}

			transformer, err := newTransformer(cfg, log)
			if err != nil {
				return err
			}

			srv := server.New(server.Options{
				Config:      cfg.Server,
				Fetcher:     fetch.New(cfg.Fetch, log.Named("fetch")),
				Transformer: transformer,
				Logger:      log.Named("server"),
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			log.Info("Faleproxy server starting",
				zap.String("addr", cfg.Server.Addr()),
				zap.String("target", cfg.Rewrite.Target),
				zap.String("replacement", cfg.Rewrite.Replacement))
			return srv.Run(ctx)
		},
	}

	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "监听端口，覆盖配置中的 server.port")
	return serveCmd
}
