package flags

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	appcommon "github.com/ruteri/onchain-registrar/common"
	"github.com/ruteri/onchain-registrar/httpserver"
	"github.com/ruteri/onchain-registrar/registrar"
	"github.com/ruteri/onchain-registrar/transport"
)

func SetupLogger(cCtx *cli.Context) (log *slog.Logger) {
	logJSON := cCtx.Bool(LogJsonFlag.Name)
	logDebug := cCtx.Bool(LogDebugFlag.Name)
	logUID := cCtx.Bool(LogUidFlag.Name)
	logService := cCtx.String("log-service")

	logger := appcommon.SetupLogger(&appcommon.LoggingOpts{
		Debug:   logDebug,
		JSON:    logJSON,
		Service: logService,
		Version: appcommon.Version,
	})

	if logUID {
		id := uuid.Must(uuid.NewRandom())
		logger = logger.With("uid", id.String())
	}
	return logger
}

func ConfigureServer(cCtx *cli.Context, logger *slog.Logger, listenAddr string) *httpserver.HTTPServerConfig {
	metricsAddr := cCtx.String(MetricsAddrFlag.Name)
	enablePprof := cCtx.Bool(PprofFlag.Name)
	drainDuration := time.Duration(cCtx.Int64(DrainSecondsFlag.Name)) * time.Second

	return &httpserver.HTTPServerConfig{
		ListenAddr:               listenAddr,
		MetricsAddr:              metricsAddr,
		Log:                      logger,
		EnablePprof:              enablePprof,
		DrainDuration:            drainDuration,
		GracefulShutdownDuration: 30 * time.Second,
		ReadTimeout:              60 * time.Second,
		WriteTimeout:             30 * time.Second,
	}
}

// TransportConfig collects the transport flags.
func TransportConfig(cCtx *cli.Context, logger *slog.Logger) transport.Config {
	var block *big.Int
	if n := cCtx.Uint64(BlockFlag.Name); n != 0 {
		block = new(big.Int).SetUint64(n)
	}

	return transport.Config{
		RPCAddrs:        cCtx.StringSlice(RpcAddrFlag.Name),
		CallTimeout:     cCtx.Duration(CallTimeoutFlag.Name),
		Block:           block,
		CacheTTL:        cCtx.Duration(CacheTTLFlag.Name),
		CacheMaxEntries: cCtx.Int(CacheMaxEntriesFlag.Name),
		BatchWindow:     cCtx.Duration(BatchWindowFlag.Name),
		MaxBatch:        cCtx.Int(MaxBatchFlag.Name),
		MaxInFlight:     cCtx.Int(MaxInFlightFlag.Name),
		Log:             logger,
	}
}

// NewRegistrar dials the configured nodes and builds a client in the
// configured execution mode. The returned transport set must be closed by
// the caller.
func NewRegistrar(cCtx *cli.Context, logger *slog.Logger) (*registrar.Client, *transport.Set, error) {
	registryHex := cCtx.String(RegistryContractFlag.Name)
	if !common.IsHexAddress(registryHex) {
		return nil, nil, fmt.Errorf("invalid registry contract address %q", registryHex)
	}
	registryAddr := common.HexToAddress(registryHex)

	mode, err := registrar.ParseMode(cCtx.String(ModeFlag.Name))
	if err != nil {
		return nil, nil, err
	}

	ctx, cancel := context.WithTimeout(cCtx.Context, 30*time.Second)
	defer cancel()

	transports, err := transport.Dial(ctx, TransportConfig(cCtx, logger))
	if err != nil {
		return nil, nil, err
	}

	var strategy registrar.Strategy
	switch mode {
	case registrar.ModeDeferred:
		strategy = registrar.NewDeferred(transports.Async)
	default:
		strategy = registrar.NewBlocking(transports.Blocking)
	}

	client, err := registrar.NewClient(registryAddr, strategy)
	if err != nil {
		transports.Close()
		return nil, nil, err
	}

	logger.Info("Registrar client ready", "registry", registryAddr.Hex(), "mode", mode.String())
	return client, transports, nil
}

var RpcAddrFlag = &cli.StringSliceFlag{
	Name:    "rpc-addr",
	Value:   cli.NewStringSlice("http://127.0.0.1:8545"),
	Usage:   "address to connect to RPC, repeat to query several nodes",
	EnvVars: []string{"REGISTRAR_RPC_ADDR"},
}

var RegistryContractFlag = &cli.StringFlag{
	Name:     "registry-contract",
	Required: true,
	Usage:    "registry contract address, 0x-prefixed hex",
	EnvVars:  []string{"REGISTRAR_REGISTRY_CONTRACT"},
}

var ModeFlag = &cli.StringFlag{
	Name:    "mode",
	Value:   registrar.ModeBlocking.String(),
	Usage:   "execution mode: 'blocking' or 'deferred'",
	EnvVars: []string{"REGISTRAR_MODE"},
}

var CallTimeoutFlag = &cli.DurationFlag{
	Name:    "call-timeout",
	Value:   transport.DefaultCallTimeout,
	Usage:   "timeout of a single eth_call",
	EnvVars: []string{"REGISTRAR_CALL_TIMEOUT"},
}

var BlockFlag = &cli.Uint64Flag{
	Name:    "block",
	Value:   0,
	Usage:   "query registry state at this block number, 0 queries the latest block",
	EnvVars: []string{"REGISTRAR_BLOCK"},
}

var CacheMaxEntriesFlag = &cli.IntFlag{
	Name:    "cache-max-entries",
	Value:   transport.DefaultCacheMaxEntries,
	Usage:   "maximum number of cached lookups",
	EnvVars: []string{"REGISTRAR_CACHE_MAX_ENTRIES"},
}

var CacheTTLFlag = &cli.DurationFlag{
	Name:    "cache-ttl",
	Value:   0,
	Usage:   "cache successful lookups for this long, 0 disables the cache",
	EnvVars: []string{"REGISTRAR_CACHE_TTL"},
}

var BatchWindowFlag = &cli.DurationFlag{
	Name:    "batch-window",
	Value:   0,
	Usage:   "batch deferred lookups sent within this window, 0 disables batching",
	EnvVars: []string{"REGISTRAR_BATCH_WINDOW"},
}

var MaxBatchFlag = &cli.IntFlag{
	Name:    "max-batch",
	Value:   transport.DefaultMaxBatch,
	Usage:   "maximum number of calls in one JSON-RPC batch",
	EnvVars: []string{"REGISTRAR_MAX_BATCH"},
}

var MaxInFlightFlag = &cli.IntFlag{
	Name:    "max-in-flight",
	Value:   transport.DefaultMaxInFlight,
	Usage:   "maximum number of concurrent deferred lookups",
	EnvVars: []string{"REGISTRAR_MAX_IN_FLIGHT"},
}

var LogJsonFlag = &cli.BoolFlag{
	Name:  "log-json",
	Value: false,
	Usage: "log in JSON format",
}
var LogDebugFlag = &cli.BoolFlag{
	Name:  "log-debug",
	Value: false,
	Usage: "log debug messages",
}
var LogUidFlag = &cli.BoolFlag{
	Name:  "log-uid",
	Value: false,
	Usage: "generate a uuid and add to all log messages",
}

var LogServiceFlagFn = func(service string) *cli.StringFlag {
	return &cli.StringFlag{
		Name:  "log-service",
		Value: service,
		Usage: "add 'service' tag to logs",
	}
}

var PprofFlag = &cli.BoolFlag{
	Name:  "pprof",
	Value: false,
	Usage: "enable pprof debug endpoint",
}
var DrainSecondsFlag = &cli.Int64Flag{
	Name:  "drain-seconds",
	Value: 45,
	Usage: "seconds to wait in drain HTTP request",
}
var MetricsAddrFlag = &cli.StringFlag{
	Name:  "metrics-addr",
	Value: "127.0.0.1:8090",
	Usage: "address to listen on for Prometheus metrics",
}

var RegistrarFlags = []cli.Flag{
	RpcAddrFlag,
	RegistryContractFlag,
	ModeFlag,
	CallTimeoutFlag,
	BlockFlag,
	CacheTTLFlag,
	CacheMaxEntriesFlag,
	BatchWindowFlag,
	MaxBatchFlag,
	MaxInFlightFlag,
}

var LogFlags = []cli.Flag{
	LogJsonFlag,
	LogDebugFlag,
	LogUidFlag,
}

var ServerFlags = []cli.Flag{
	PprofFlag,
	DrainSecondsFlag,
	MetricsAddrFlag,
}
