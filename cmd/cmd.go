// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// authCommand handles account and session operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Account and session management",
		Commands: []*cli.Command{
			{
				Name:  "register",
				Usage: "Create an account and sign in",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "email",
						Aliases:  []string{"e"},
						Usage:    "Account email",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "password",
						Aliases:  []string{"p"},
						Usage:    "Account password",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "name",
						Aliases:  []string{"n"},
						Usage:    "Full name",
						Required: true,
					},
				},
				Action: r.AuthRegister,
			},
			{
				Name:  "login",
				Usage: "Sign in and persist the session locally",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "email",
						Aliases:  []string{"e"},
						Usage:    "Account email",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "password",
						Aliases:  []string{"p"},
						Usage:    "Account password",
						Required: true,
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:   "logout",
				Usage:  "Clear the persisted session",
				Action: r.AuthLogout,
			},
			{
				Name:  "whoami",
				Usage: "Show the signed-in profile",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.AuthWhoami,
			},
			{
				Name:   "status",
				Usage:  "Show session and backend health",
				Action: r.AuthStatus,
			},
		},
	}
}

// convertCommand handles statement conversions
func convertCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "convert",
		Aliases: []string{"c"},
		Usage:   "Convert PDF bank statements to Excel",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Convert a statement on the signed-in account",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "download",
						Aliases: []string{"d"},
						Usage:   "Download the generated spreadsheet",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Directory for downloaded spreadsheets",
					},
				},
				Action: r.ConvertRun,
			},
			{
				Name:  "guest",
				Usage: "Convert one statement without an account (single free trial)",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Directory for the generated spreadsheet",
					},
				},
				Action: r.ConvertGuest,
			},
			{
				Name:  "check",
				Usage: "Check statement compatibility without consuming quota",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.ConvertCheck,
			},
			{
				Name:  "report",
				Usage: "Report a statement that failed to convert",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "bank",
						Usage: "Bank the statement came from",
					},
					&cli.StringFlag{
						Name:  "error",
						Usage: "Error message the conversion produced",
					},
					&cli.StringFlag{
						Name:     "comment",
						Aliases:  []string{"m"},
						Usage:    "What went wrong, in your words",
						Required: true,
					},
				},
				Action: r.ConvertReport,
			},
		},
	}
}

// historyCommand handles past conversions
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "history",
		Aliases: []string{"h"},
		Usage:   "Past conversions on the signed-in account",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List converted statements",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
				},
				Action: r.HistoryList,
			},
			{
				Name:  "download",
				Usage: "Download spreadsheets for past conversions",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "id",
						Usage: "Upload ID to download (omit for all)",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output directory",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent downloads for bulk mode",
						Value: 4,
					},
				},
				Action: r.HistoryDownload,
			},
			{
				Name:  "export",
				Usage: "Export the history as CSV",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path (default: stdout)",
					},
				},
				Action: r.HistoryExport,
			},
		},
	}
}

// banksCommand lists supported banks
func banksCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "banks",
		Usage: "List supported banks",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Banks,
	}
}

// usageCommand shows quota consumption
func usageCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "usage",
		Usage: "Show monthly conversion quota",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Usage,
	}
}

// billingCommand handles subscription operations
func billingCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "billing",
		Usage: "Subscription checkout and management",
		Commands: []*cli.Command{
			{
				Name:  "checkout",
				Usage: "Start a subscription checkout",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "plan",
						Usage:    "Plan to subscribe to (premium or pro)",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "open",
						Usage: "Open the checkout URL in a browser",
					},
				},
				Action: r.BillingCheckout,
			},
			{
				Name:  "portal",
				Usage: "Open the billing portal",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "open",
						Usage: "Open the portal URL in a browser",
					},
				},
				Action: r.BillingPortal,
			},
		},
	}
}

// supportCommand sends a support message
func supportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "support",
		Usage: "Contact support",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "subject",
				Aliases:  []string{"s"},
				Usage:    "Message subject",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "message",
				Aliases:  []string{"m"},
				Usage:    "Message body",
				Required: true,
			},
		},
		Action: r.Support,
	}
}

// debugCommand runs server-side diagnostics
func debugCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "debug",
		Usage: "Diagnostics",
		Commands: []*cli.Command{
			{
				Name:  "pdf",
				Usage: "Run the server-side PDF diagnostic",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.DebugPDF,
			},
		},
	}
}

// tuiCommand launches the interactive terminal UI
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "tui",
		Usage:  "Launch the interactive terminal UI",
		Action: r.TUI,
	}
}
