package main

import (
	"fmt"
	"log"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/urfave/cli/v2"

	"github.com/ruteri/onchain-registrar/cmd/flags"
	"github.com/ruteri/onchain-registrar/registrar"
)

var flagRecord = &cli.StringFlag{
	Name:  "record",
	Value: registrar.DefaultRecordType,
	Usage: "record type to look up",
}

var flagAsync = &cli.BoolFlag{
	Name:  "async",
	Usage: "use the handle-returning form of the lookup; whether the call blocks is set by --mode",
}

var errNotRegistered = cli.Exit("not registered", 1)

// withClient runs fn with a client built from the global flags.
func withClient(fn func(cCtx *cli.Context, c *registrar.Client) error) cli.ActionFunc {
	return func(cCtx *cli.Context) error {
		logger := flags.SetupLogger(cCtx)
		client, transports, err := flags.NewRegistrar(cCtx, logger)
		if err != nil {
			return err
		}
		defer transports.Close()
		return fn(cCtx, client)
	}
}

func nameArg(cCtx *cli.Context) (string, error) {
	if cCtx.NArg() != 1 {
		return "", cli.Exit("expected exactly one name argument", 2)
	}
	return cCtx.Args().First(), nil
}

func main() {
	app := &cli.App{
		Name:  "registrar",
		Usage: "Look up names in an on-chain registry",
		Flags: appFlags(),
		Commands: []*cli.Command{
			{
				Name:      "resolve",
				Usage:     "print the address registered for a name",
				ArgsUsage: "<name>",
				Flags:     []cli.Flag{flagRecord, flagAsync},
				Action: withClient(func(cCtx *cli.Context, c *registrar.Client) error {
					name, err := nameArg(cCtx)
					if err != nil {
						return err
					}

					record := cCtx.String(flagRecord.Name)
					if cCtx.Bool(flagAsync.Name) {
						res, err := c.ResolveAsync(cCtx.Context, name, record).Wait(cCtx.Context)
						return printAddress(res.Value, err)
					}
					res, err := c.Resolve(cCtx.Context, name, record)
					return printAddress(res.Value, err)
				}),
			},
			{
				Name:      "owner",
				Usage:     "print the owner of a name",
				ArgsUsage: "<name>",
				Action: withClient(func(cCtx *cli.Context, c *registrar.Client) error {
					name, err := nameArg(cCtx)
					if err != nil {
						return err
					}
					res, err := c.Owner(cCtx.Context, name)
					return printAddress(res.Value, err)
				}),
			},
			{
				Name:      "data",
				Usage:     "print the raw 32-byte record of a name",
				ArgsUsage: "<name>",
				Flags:     []cli.Flag{flagRecord},
				Action: withClient(func(cCtx *cli.Context, c *registrar.Client) error {
					name, err := nameArg(cCtx)
					if err != nil {
						return err
					}
					res, err := c.Data(cCtx.Context, name, cCtx.String(flagRecord.Name))
					if err != nil {
						return err
					}
					data, found := res.Value()
					if !found {
						return errNotRegistered
					}
					fmt.Println(data.Hex())
					return nil
				}),
			},
			{
				Name:      "reverse",
				Usage:     "print the name registered for an address",
				ArgsUsage: "<address>",
				Action: withClient(func(cCtx *cli.Context, c *registrar.Client) error {
					arg, err := nameArg(cCtx)
					if err != nil {
						return err
					}
					if !common.IsHexAddress(arg) {
						return cli.Exit(fmt.Sprintf("invalid address %q", arg), 2)
					}
					res, err := c.Reverse(cCtx.Context, common.HexToAddress(arg))
					if err != nil {
						return err
					}
					name, found := res.Value()
					if !found {
						return errNotRegistered
					}
					fmt.Println(name)
					return nil
				}),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func appFlags() []cli.Flag {
	out := []cli.Flag{}
	out = append(out, flags.RegistrarFlags...)
	out = append(out, flags.LogFlags...)
	return append(out, flags.LogServiceFlagFn("registrar-cli"))
}

func printAddress(value func() (common.Address, bool), err error) error {
	if err != nil {
		return err
	}
	addr, found := value()
	if !found {
		return errNotRegistered
	}
	fmt.Println(addr.Hex())
	return nil
}
