package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/ruteri/onchain-registrar/cmd/flags"
	"github.com/ruteri/onchain-registrar/dnsgateway"
	"github.com/ruteri/onchain-registrar/httpserver"
)

var flagListenAddr = &cli.StringFlag{
	Name:    "listen-addr",
	Value:   "127.0.0.1:8080",
	Usage:   "address to listen on for API",
	EnvVars: []string{"REGISTRAR_LISTEN_ADDR"},
}

var flagDNSZone = &cli.StringFlag{
	Name:    "dns-zone",
	Usage:   "serve TXT lookups for names under this zone, empty disables the DNS gateway",
	EnvVars: []string{"REGISTRAR_DNS_ZONE"},
}

var flagDNSListenAddr = &cli.StringFlag{
	Name:    "dns-listen-addr",
	Value:   "127.0.0.1:5353",
	Usage:   "address to listen on for DNS",
	EnvVars: []string{"REGISTRAR_DNS_LISTEN_ADDR"},
}

var flagDNSTTL = &cli.UintFlag{
	Name:  "dns-ttl",
	Value: dnsgateway.DefaultTTL,
	Usage: "TTL of DNS answers in seconds",
}

func main() {
	appFlags := []cli.Flag{flagListenAddr, flagDNSZone, flagDNSListenAddr, flagDNSTTL, flags.LogServiceFlagFn("registrar-server")}
	appFlags = append(appFlags, flags.RegistrarFlags...)
	appFlags = append(appFlags, flags.LogFlags...)
	appFlags = append(appFlags, flags.ServerFlags...)

	app := &cli.App{
		Name:  "registrar-server",
		Usage: "Serve on-chain registry lookups over HTTP and DNS",
		Flags: appFlags,
		Action: func(cCtx *cli.Context) error {
			logger := flags.SetupLogger(cCtx)

			client, transports, err := flags.NewRegistrar(cCtx, logger)
			if err != nil {
				logger.Error("Failed to create registrar client", "err", err)
				return err
			}
			defer transports.Close()

			cfg := flags.ConfigureServer(cCtx, logger, cCtx.String(flagListenAddr.Name))
			server, err := httpserver.New(cfg, client)
			if err != nil {
				logger.Error("Failed to create server", "err", err)
				return err
			}

			var gateway *dnsgateway.Gateway
			if zone := cCtx.String(flagDNSZone.Name); zone != "" {
				gateway, err = dnsgateway.New(client, dnsgateway.Config{
					Zone:       zone,
					ListenAddr: cCtx.String(flagDNSListenAddr.Name),
					TTL:        uint32(cCtx.Uint(flagDNSTTL.Name)),
					Timeout:    cCtx.Duration(flags.CallTimeoutFlag.Name),
					Log:        logger,
				})
				if err != nil {
					logger.Error("Failed to create DNS gateway", "err", err)
					return err
				}
				gateway.RunInBackground()
			}

			server.RunInBackground()

			exit := make(chan os.Signal, 1)
			signal.Notify(exit, os.Interrupt, syscall.SIGTERM)

			logger.Info("Server is running, press Ctrl+C to stop")
			<-exit
			logger.Info("Shutdown signal received")

			server.Shutdown()
			if gateway != nil {
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				gateway.Shutdown(ctx)
			}
			logger.Info("Server shutdown complete")

			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
