// portctl runs port actions from the command line. Queued durable reverts
// call "portctl unblock IP IFINDEX".
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"go-portlock/internal/app"
	"go-portlock/internal/config"
	"go-portlock/internal/log"
	"go-portlock/internal/models"
	"go-portlock/internal/scheduler"

	"github.com/paularlott/cli"
)

func portArgs() []cli.Argument {
	return []cli.Argument{
		&cli.StringArg{Name: "ip", Required: true},
		&cli.StringArg{Name: "if-index", Required: true},
	}
}

func ifIndexArg(cmd *cli.Command) (int, error) {
	idx, err := strconv.Atoi(cmd.GetStringArg("if-index"))
	if err != nil || idx <= 0 {
		return 0, fmt.Errorf("invalid interface index %q", cmd.GetStringArg("if-index"))
	}
	return idx, nil
}

// withApp builds the engine for one command and closes it afterwards.
func withApp(ctx context.Context, durable bool, fn func(*app.App) error) error {
	a, err := app.New(ctx, config.Load(), durable)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

func portActionCommand(action scheduler.Action, usage string) *cli.Command {
	var flags []cli.Flag
	if action == scheduler.ActionBlock {
		flags = []cli.Flag{
			&cli.IntFlag{Name: "duration", Usage: "Seconds until the port is unblocked again"},
		}
	}

	return &cli.Command{
		Name:      string(action),
		Usage:     usage,
		Arguments: portArgs(),
		Flags:     flags,
		Run: func(ctx context.Context, cmd *cli.Command) error {
			ip := cmd.GetStringArg("ip")
			idx, err := ifIndexArg(cmd)
			if err != nil {
				return err
			}
			var d time.Duration
			if action == scheduler.ActionBlock {
				d = time.Duration(cmd.GetInt("duration")) * time.Second
			}

			// this process exits right away, so a block is only reverted by
			// the durable job, and an unblock must remove the one on record
			return withApp(ctx, true, func(a *app.App) error {
				if err := a.Scheduler.SchedulePortAction(ctx, ip, idx, action, d); err != nil {
					log.Error("Port action failed", "action", action, "ip", ip, "if_index", idx, "error", err)
					return err
				}
				log.Info("Port action applied", "action", action, "ip", ip, "if_index", idx)
				return nil
			})
		},
	}
}

func pollCommand() *cli.Command {
	return &cli.Command{
		Name:      "poll",
		Usage:     "Refresh one interface",
		Arguments: portArgs(),
		Run: func(ctx context.Context, cmd *cli.Command) error {
			idx, err := ifIndexArg(cmd)
			if err != nil {
				return err
			}
			return withApp(ctx, false, func(a *app.App) error {
				return a.Poller.PollSingleInterface(ctx, cmd.GetStringArg("ip"), idx)
			})
		},
	}
}

func scanCommand() *cli.Command {
	return &cli.Command{
		Name:  "scan",
		Usage: "Scan every registered switch once",
		Run: func(ctx context.Context, cmd *cli.Command) error {
			return withApp(ctx, false, func(a *app.App) error {
				report, err := a.Poller.ScanAndPersistPorts(ctx)
				if err != nil {
					return err
				}
				fmt.Printf("scan %s: %d switches, %d ports, %d failed\n",
					report.ID, report.Switches, report.Ports, len(report.Failed))
				for ip, err := range report.Failed {
					fmt.Printf("  %s\t%v\n", ip, err)
				}
				return nil
			})
		},
	}
}

func switchCommand() *cli.Command {
	return &cli.Command{
		Name:  "switch",
		Usage: "Manage registered switches",
		Commands: []*cli.Command{
			{
				Name:  "add",
				Usage: "Register a switch",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "ip", Usage: "Management IPv4 address"},
					&cli.StringFlag{Name: "hostname", Usage: "Switch hostname"},
				},
				Run: func(ctx context.Context, cmd *cli.Command) error {
					ip := cmd.GetString("ip")
					if ip == "" {
						return fmt.Errorf("--ip is required")
					}
					return withApp(ctx, false, func(a *app.App) error {
						sw := &models.Switch{IPv4: ip, Hostname: cmd.GetString("hostname")}
						if err := a.Store.CreateSwitch(sw); err != nil {
							return err
						}
						fmt.Printf("%d\t%s\t%s\n", sw.ID, sw.IPv4, sw.Hostname)
						return nil
					})
				},
			},
			{
				Name:  "list",
				Usage: "List registered switches",
				Run: func(ctx context.Context, cmd *cli.Command) error {
					return withApp(ctx, false, func(a *app.App) error {
						switches, err := a.Store.ListSwitches()
						if err != nil {
							return err
						}
						if len(switches) == 0 {
							fmt.Println("No switches found")
						}
						for _, sw := range switches {
							fmt.Printf("%d\t%s\t%s\n", sw.ID, sw.IPv4, sw.Hostname)
						}
						return nil
					})
				},
			},
		},
	}
}

func main() {
	cmd := &cli.Command{
		Name:        "portctl",
		Usage:       "Block, unblock and refresh switch ports",
		Description: "Applies port actions over SNMP and syncs the port table",
		Commands: []*cli.Command{
			portActionCommand(scheduler.ActionBlock, "Block a port for --duration seconds"),
			portActionCommand(scheduler.ActionUnblock, "Unblock a port"),
			pollCommand(),
			scanCommand(),
			switchCommand(),
		},
	}

	if err := cmd.Execute(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
