package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/deidaraiorek/vecsearch/internal/server"
)

var (
	servePort    int
	serveBatched bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the search API over HTTP",
	Long: `Serves search, similar-document and index administration endpoints plus
Prometheus metrics until interrupted. Index builds are not exposed.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "listen port (default from config)")
	serveCmd.Flags().BoolVar(&serveBatched, "batched", false, "fetch all term weights in one query")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, func(a *app) error {
		if cmd.Flags().Changed("port") {
			a.cfg.Server.Port = servePort
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		srv := server.New(a.db, a.engine(serveBatched), a.processor, a.logger, a.metrics)
		return srv.ListenAndServe(ctx, a.cfg.Server)
	})
}
