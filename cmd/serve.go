package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/sunny/internal/proxy"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the /api/chat proxy for the browser app",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv(cmd)
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			e.cfg.Server.Addr = addr
		}

		pc := e.cfg.Proxy
		if pc.APIKey == "" {
			e.log.Warn("no Anthropic API key configured, /api/chat will answer 500")
		}
		fwd := proxy.NewAnthropicForwarder(proxy.ForwarderConfig{
			APIKey:    pc.APIKey,
			BaseURL:   pc.BaseURL,
			Model:     pc.Model,
			MaxTokens: pc.MaxTokens,
		})
		var relay proxy.Forwarder = fwd
		if record, _ := cmd.Flags().GetBool("record"); record {
			st, err := openLocal(e)
			if err != nil {
				return err
			}
			defer st.Close()
			relay = proxy.WithEventLog(fwd, pc.Model, st.EventRepo(), e.log)
		}

		accessLog, _ := cmd.Flags().GetBool("access-log")
		app := proxy.New(proxy.Config{
			AllowOrigins: e.cfg.Server.CORSOrigins,
			BodyLimitMB:  e.cfg.Server.BodyLimitMB,
			AccessLog:    accessLog,
		}, relay, e.log)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		errc := make(chan error, 1)
		go func() {
			e.log.WithField("addr", e.cfg.Server.Addr).Info("proxy listening")
			errc <- app.Listen(e.cfg.Server.Addr)
		}()

		select {
		case err := <-errc:
			return fmt.Errorf("listen: %w", err)
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		e.log.Info("shutting down")
		return app.ShutdownWithContext(shutdownCtx)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides server.addr)")
	serveCmd.Flags().Bool("access-log", true, "Log every request")
	serveCmd.Flags().Bool("record", true, "Record relayed calls in the LLM event log")
}
