// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// authCommand handles authentication operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage authentication",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Sign in with email and password",
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
					&cli.BoolFlag{
						Name:  "no-persist",
						Usage: "Do not save the session locally",
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:  "signup",
				Usage: "Create a new account",
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
					&cli.BoolFlag{
						Name:  "no-persist",
						Usage: "Do not save the session locally",
					},
				},
				Action: r.AuthSignup,
			},
			{
				Name:   "logout",
				Usage:  "Sign out and clear the saved session",
				Action: r.AuthLogout,
			},
			{
				Name:  "status",
				Usage: "Show the current session state",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.AuthStatus,
			},
		},
	}
}

// moviesCommand handles movie catalog operations
func moviesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "movies",
		Aliases: []string{"movie", "m"},
		Usage:   "Movie catalog operations",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List movies, one page at a time",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "page",
						Usage: "Page number",
						Value: 1,
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Movies per page",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
				},
				Action: r.MoviesList,
			},
			{
				Name:  "get",
				Usage: "Show a single movie",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.MoviesGet,
			},
			{
				Name:  "create",
				Usage: "Add a movie to the catalog",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "title",
						Aliases:  []string{"t"},
						Usage:    "Movie title",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "year",
						Aliases:  []string{"y"},
						Usage:    "Publishing year",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "image",
						Aliases: []string{"i"},
						Usage:   "Path to a poster image file",
					},
				},
				Action: r.MoviesCreate,
			},
			{
				Name:  "update",
				Usage: "Update a movie's fields",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "title",
						Aliases: []string{"t"},
						Usage:   "New title",
					},
					&cli.StringFlag{
						Name:    "year",
						Aliases: []string{"y"},
						Usage:   "New publishing year",
					},
					&cli.StringFlag{
						Name:    "image",
						Aliases: []string{"i"},
						Usage:   "Path to a new poster image file",
					},
				},
				Action: r.MoviesUpdate,
			},
			{
				Name:  "delete",
				Usage: "Delete a movie",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "yes",
						Aliases: []string{"f"},
						Usage:   "Skip the confirmation prompt",
					},
				},
				Action: r.MoviesDelete,
			},
			{
				Name:  "export",
				Usage: "Export the full catalog to a file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "format",
						Usage: "Export format: json, csv, markdown, txt",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path",
					},
				},
				Action: r.MoviesExport,
			},
			{
				Name:  "poster",
				Usage: "Download a movie's poster image",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path",
					},
					&cli.BoolFlag{
						Name:  "open",
						Usage: "Open the poster in the browser instead of saving",
					},
				},
				Action: r.MoviesPoster,
			},
		},
	}
}

// setupCommand handles setup operations for configuration and the session database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "database",
				Usage: "Initialize the session database and run migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for interactive catalog management.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive movie catalog",
		Action:  r.TUI,
	}
}
