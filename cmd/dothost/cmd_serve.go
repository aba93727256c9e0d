package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/benithors/dothost/internal/logger"
	"github.com/benithors/dothost/internal/metrics"
	"github.com/benithors/dothost/internal/server"
)

func newServeCmd(c *cli) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the availability and suggestion API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
			m := metrics.New(reg)

			comps, err := c.wire(cmd, m)
			if err != nil {
				return err
			}

			sc := c.cfg.Server
			if cmd.Flags().Changed("addr") {
				sc.Addr = addr
			}
			srv := server.New(server.Options{
				Addr:            sc.Addr,
				ReadTimeout:     sc.ReadTimeout,
				WriteTimeout:    sc.WriteTimeout,
				ShutdownTimeout: sc.ShutdownTimeout,
				Availability:    comps.checker,
				Keywords:        comps.keywords,
				TLDs:            comps.tlds,
				Gatherer:        reg,
				Logger:          c.log,
			})

			c.log.Info("starting dothost",
				logger.String("version", c.Version),
				logger.String("addr", sc.Addr),
				logger.String("registrar", c.cfg.Registrar.BaseURL),
				logger.Duration("registrar_timeout", c.cfg.Registrar.Timeout),
			)
			if err := srv.Run(cmd.Context()); err != nil {
				return &cliError{Code: 1, Err: err, Cmd: cmd}
			}
			return nil
		},
	}

	cmd.SetFlagErrorFunc(usageErr)
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides server.addr)")

	return cmd
}
