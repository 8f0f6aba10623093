// Command inflow is a command-line client for a remote inventory service.
// It proxies inventory operations (products, stock, orders, transfers,
// serial numbers) through a caching tier so repeated reads avoid redundant
// remote calls.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"
	cli "github.com/urfave/cli/v2"

	"github.com/bigl34/inflow-cli/pkg/cache"
	"github.com/bigl34/inflow-cli/pkg/gateway"
	"github.com/bigl34/inflow-cli/pkg/inventory"
	"github.com/bigl34/inflow-cli/pkg/logging"
	"github.com/bigl34/inflow-cli/pkg/serials"
)

const cacheNamespace = "inflow"

func main() {
	app := cli.NewApp()
	app.Name = "inflow"
	app.Usage = "cached command-line client for a remote inventory service"

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "base-url",
			Value:   "https://api.inflow.example.com",
			EnvVars: []string{"INFLOW_BASE_URL"},
		},
		&cli.StringFlag{
			Name:    "api-key",
			EnvVars: []string{"INFLOW_API_KEY"},
		},
		&cli.StringFlag{
			Name:    "company-id",
			EnvVars: []string{"INFLOW_COMPANY_ID"},
		},
		&cli.StringFlag{
			Name:    "redis",
			Usage:   "redis address for a shared cache backend (empty = in-memory)",
			EnvVars: []string{"INFLOW_CACHE_REDIS"},
		},
		&cli.BoolFlag{
			Name:  "no-cache",
			Usage: "bypass the cache for all reads",
		},
		&cli.StringFlag{
			Name:    "log-level",
			Value:   "info",
			EnvVars: []string{"INFLOW_LOG_LEVEL"},
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "human-readable log output",
		},
	}

	app.Before = func(cctx *cli.Context) error {
		logging.Setup(logging.Config{
			Level:  logging.LogLevel(cctx.String("log-level")),
			Pretty: cctx.Bool("pretty"),
			Output: os.Stderr,
		})
		return nil
	}

	app.Commands = []*cli.Command{
		productsCmd,
		stockCmd,
		ordersCmd,
		purchaseOrdersCmd,
		customersCmd,
		vendorsCmd,
		locationsCmd,
		categoriesCmd,
		reasonsCmd,
		transfersCmd,
		serialsCmd,
		cacheCmd,
		serveCmd,
	}

	app.RunAndExitOnError()
}

// newStore builds the cache store from flags: in-memory by default, Redis
// when a shared backend address is configured.
func newStore(cctx *cli.Context) cache.Cache {
	if addr := cctx.String("redis"); addr != "" {
		return cache.NewRedisStore(redis.NewClient(&redis.Options{Addr: addr}), cacheNamespace, inventory.TTLMedium)
	}
	return cache.NewMemoryStore(cacheNamespace, inventory.TTLMedium)
}

func newGateway(cctx *cli.Context) *gateway.Gateway {
	return gateway.New(gateway.DefaultConfig(
		cctx.String("base-url"),
		cctx.String("api-key"),
		cctx.String("company-id"),
	))
}

func newClient(cctx *cli.Context) (*inventory.Client, error) {
	return inventory.New(inventory.Config{
		Gateway: newGateway(cctx),
		Cache:   newStore(cctx),
		Bypass:  cctx.Bool("no-cache"),
	})
}

func newBuilder(cctx *cli.Context) *serials.Builder {
	return serials.NewBuilder(newGateway(cctx), newStore(cctx))
}

func printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}

// fieldsArg parses a trailing JSON object argument into a field map.
func fieldsArg(cctx *cli.Context, position int) (map[string]any, error) {
	return parseFields(cctx.Args().Get(position))
}

func parseFields(raw string) (map[string]any, error) {
	if raw == "" {
		return nil, fmt.Errorf("expected a JSON object argument")
	}
	var fields map[string]any
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return nil, fmt.Errorf("parse fields: %w", err)
	}
	return fields, nil
}

var productsCmd = &cli.Command{
	Name:  "products",
	Usage: "product catalog operations",
	Subcommands: []*cli.Command{
		{
			Name: "list",
			Action: func(cctx *cli.Context) error {
				c, err := newClient(cctx)
				if err != nil {
					return err
				}
				result, err := c.ListProducts(cctx.Context)
				if err != nil {
					return err
				}
				return printJSON(result)
			},
		},
		{
			Name:      "get",
			ArgsUsage: "<product-id>",
			Action: func(cctx *cli.Context) error {
				c, err := newClient(cctx)
				if err != nil {
					return err
				}
				result, err := c.GetProduct(cctx.Context, cctx.Args().Get(0))
				if err != nil {
					return err
				}
				return printJSON(result)
			},
		},
		{
			Name:      "search",
			ArgsUsage: "<query>",
			Action: func(cctx *cli.Context) error {
				c, err := newClient(cctx)
				if err != nil {
					return err
				}
				result, err := c.SearchProducts(cctx.Context, cctx.Args().Get(0))
				if err != nil {
					return err
				}
				return printJSON(result)
			},
		},
		{
			Name:      "bom",
			ArgsUsage: "<product-id>",
			Action: func(cctx *cli.Context) error {
				c, err := newClient(cctx)
				if err != nil {
					return err
				}
				result, err := c.GetProductBOM(cctx.Context, cctx.Args().Get(0))
				if err != nil {
					return err
				}
				return printJSON(result)
			},
		},
		{
			Name:      "create",
			ArgsUsage: "<fields-json>",
			Action: func(cctx *cli.Context) error {
				c, err := newClient(cctx)
				if err != nil {
					return err
				}
				fields, err := fieldsArg(cctx, 0)
				if err != nil {
					return err
				}
				result, err := c.CreateProduct(cctx.Context, fields)
				if err != nil {
					return err
				}
				return printJSON(result)
			},
		},
		{
			Name:      "update",
			ArgsUsage: "<product-id> <fields-json>",
			Action: func(cctx *cli.Context) error {
				c, err := newClient(cctx)
				if err != nil {
					return err
				}
				fields, err := fieldsArg(cctx, 1)
				if err != nil {
					return err
				}
				result, err := c.UpdateProduct(cctx.Context, cctx.Args().Get(0), fields)
				if err != nil {
					return err
				}
				return printJSON(result)
			},
		},
	},
}

var stockCmd = &cli.Command{
	Name:  "stock",
	Usage: "stock level operations",
	Subcommands: []*cli.Command{
		{
			Name: "levels",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "location"},
			},
			Action: func(cctx *cli.Context) error {
				c, err := newClient(cctx)
				if err != nil {
					return err
				}
				result, err := c.GetStockLevels(cctx.Context, cctx.String("location"))
				if err != nil {
					return err
				}
				return printJSON(result)
			},
		},
		{
			Name:      "adjust",
			ArgsUsage: "<product-id> <fields-json>",
			Action: func(cctx *cli.Context) error {
				c, err := newClient(cctx)
				if err != nil {
					return err
				}
				fields, err := fieldsArg(cctx, 1)
				if err != nil {
					return err
				}
				result, err := c.AdjustStock(cctx.Context, cctx.Args().Get(0), fields)
				if err != nil {
					return err
				}
				return printJSON(result)
			},
		},
	},
}

var ordersCmd = &cli.Command{
	Name:  "orders",
	Usage: "sales order operations",
	Subcommands: []*cli.Command{
		{
			Name: "list",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "status"},
			},
			Action: func(cctx *cli.Context) error {
				c, err := newClient(cctx)
				if err != nil {
					return err
				}
				result, err := c.ListSalesOrders(cctx.Context, cctx.String("status"))
				if err != nil {
					return err
				}
				return printJSON(result)
			},
		},
		{
			Name:      "get",
			ArgsUsage: "<order-id>",
			Action: func(cctx *cli.Context) error {
				c, err := newClient(cctx)
				if err != nil {
					return err
				}
				result, err := c.GetSalesOrder(cctx.Context, cctx.Args().Get(0))
				if err != nil {
					return err
				}
				return printJSON(result)
			},
		},
		{
			Name:      "create",
			ArgsUsage: "<fields-json>",
			Action: func(cctx *cli.Context) error {
				c, err := newClient(cctx)
				if err != nil {
					return err
				}
				fields, err := fieldsArg(cctx, 0)
				if err != nil {
					return err
				}
				result, err := c.CreateSalesOrder(cctx.Context, fields)
				if err != nil {
					return err
				}
				return printJSON(result)
			},
		},
	},
}

var purchaseOrdersCmd = &cli.Command{
	Name:  "purchase-orders",
	Usage: "purchase order operations",
	Subcommands: []*cli.Command{
		{
			Name: "list",
			Action: func(cctx *cli.Context) error {
				c, err := newClient(cctx)
				if err != nil {
					return err
				}
				result, err := c.ListPurchaseOrders(cctx.Context)
				if err != nil {
					return err
				}
				return printJSON(result)
			},
		},
		{
			Name:      "get",
			ArgsUsage: "<order-id>",
			Action: func(cctx *cli.Context) error {
				c, err := newClient(cctx)
				if err != nil {
					return err
				}
				result, err := c.GetPurchaseOrder(cctx.Context, cctx.Args().Get(0))
				if err != nil {
					return err
				}
				return printJSON(result)
			},
		},
		{
			Name:      "create",
			ArgsUsage: "<fields-json>",
			Action: func(cctx *cli.Context) error {
				c, err := newClient(cctx)
				if err != nil {
					return err
				}
				fields, err := fieldsArg(cctx, 0)
				if err != nil {
					return err
				}
				result, err := c.CreatePurchaseOrder(cctx.Context, fields)
				if err != nil {
					return err
				}
				return printJSON(result)
			},
		},
		{
			Name:      "update",
			ArgsUsage: "<order-id> <fields-json>",
			Action: func(cctx *cli.Context) error {
				c, err := newClient(cctx)
				if err != nil {
					return err
				}
				fields, err := fieldsArg(cctx, 1)
				if err != nil {
					return err
				}
				result, err := c.UpdatePurchaseOrder(cctx.Context, cctx.Args().Get(0), fields)
				if err != nil {
					return err
				}
				return printJSON(result)
			},
		},
	},
}

func listCommand(name string, fetch func(cctx *cli.Context, c *inventory.Client) (any, error)) *cli.Command {
	return &cli.Command{
		Name:  name,
		Usage: "list " + name,
		Action: func(cctx *cli.Context) error {
			c, err := newClient(cctx)
			if err != nil {
				return err
			}
			result, err := fetch(cctx, c)
			if err != nil {
				return err
			}
			return printJSON(result)
		},
	}
}

var customersCmd = listCommand("customers", func(cctx *cli.Context, c *inventory.Client) (any, error) {
	return c.ListCustomers(cctx.Context)
})

var vendorsCmd = listCommand("vendors", func(cctx *cli.Context, c *inventory.Client) (any, error) {
	return c.ListVendors(cctx.Context)
})

var locationsCmd = listCommand("locations", func(cctx *cli.Context, c *inventory.Client) (any, error) {
	return c.ListLocations(cctx.Context)
})

var categoriesCmd = listCommand("categories", func(cctx *cli.Context, c *inventory.Client) (any, error) {
	return c.ListCategories(cctx.Context)
})

var reasonsCmd = listCommand("reasons", func(cctx *cli.Context, c *inventory.Client) (any, error) {
	return c.ListAdjustmentReasons(cctx.Context)
})

var transfersCmd = listCommand("transfers", func(cctx *cli.Context, c *inventory.Client) (any, error) {
	return c.ListTransfers(cctx.Context)
})

var serialsCmd = &cli.Command{
	Name:  "serials",
	Usage: "serial number index operations",
	Subcommands: []*cli.Command{
		{
			Name: "build",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "source",
					Value: string(serials.OriginProducts),
					Usage: "index source: orders or products",
				},
				&cli.StringFlag{Name: "status", Value: serials.DefaultOrderStatus},
				&cli.IntFlag{Name: "max-records"},
				&cli.BoolFlag{Name: "rebuild"},
			},
			Action: func(cctx *cli.Context) error {
				b := newBuilder(cctx)
				opts := serials.BuildOptions{
					Status:     cctx.String("status"),
					MaxRecords: cctx.Int("max-records"),
					Rebuild:    cctx.Bool("rebuild"),
				}

				var (
					idx *serials.Index
					err error
				)
				switch serials.Origin(cctx.String("source")) {
				case serials.OriginOrders:
					idx, err = b.OrderIndex(cctx.Context, opts)
				case serials.OriginProducts:
					idx, err = b.ProductIndex(cctx.Context, opts)
				default:
					return fmt.Errorf("unknown source %q (want orders or products)", cctx.String("source"))
				}
				if err != nil {
					return err
				}
				return printJSON(map[string]any{
					"origin":   idx.Origin,
					"serials":  idx.Size(),
					"built_at": idx.BuiltAt,
				})
			},
		},
		{
			Name:      "search",
			ArgsUsage: "<serial>",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "source",
					Value: string(serials.OriginProducts),
					Usage: "index source: orders or products",
				},
				&cli.IntFlag{Name: "max-records"},
				&cli.BoolFlag{Name: "rebuild"},
			},
			Action: func(cctx *cli.Context) error {
				b := newBuilder(cctx)
				result, err := b.Search(cctx.Context, cctx.Args().Get(0), serials.Origin(cctx.String("source")), serials.BuildOptions{
					MaxRecords: cctx.Int("max-records"),
					Rebuild:    cctx.Bool("rebuild"),
				})
				if err != nil {
					return err
				}
				return printJSON(result)
			},
		},
	},
}

var cacheCmd = &cli.Command{
	Name:  "cache",
	Usage: "cache store operations (meaningful with the redis backend)",
	Subcommands: []*cli.Command{
		{
			Name: "stats",
			Action: func(cctx *cli.Context) error {
				store := newStore(cctx)
				stats, err := store.Stats(cctx.Context)
				if err != nil {
					return err
				}
				return printJSON(stats)
			},
		},
		{
			Name: "clear",
			Action: func(cctx *cli.Context) error {
				store := newStore(cctx)
				removed, err := store.Clear(cctx.Context)
				if err != nil {
					return err
				}
				return printJSON(map[string]int{"removed": removed})
			},
		},
	},
}
