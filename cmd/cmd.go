// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		sessionCommand, requestCommand, queueCommand, favoritesCommand, loginCommand, setupCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func restaurantFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "restaurant",
		Aliases:  []string{"R"},
		Usage:    "Restaurant slug (the venue you are at)",
		Required: true,
	}
}

// sessionCommand handles requester session operations
func sessionCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "session",
		Aliases: []string{"sess"},
		Usage:   "Manage your requester session",
		Commands: []*cli.Command{
			{
				Name:  "start",
				Usage: "Start or reuse a session for a restaurant",
				Flags: []cli.Flag{
					restaurantFlag(),
					&cli.StringFlag{
						Name:  "user",
						Usage: "Registered account id (omit for a guest session)",
					},
				},
				Action: r.SessionStart,
			},
			{
				Name:   "status",
				Usage:  "Show the current session for a restaurant",
				Flags:  []cli.Flag{restaurantFlag()},
				Action: r.SessionStatus,
			},
			{
				Name:   "end",
				Usage:  "Discard the session for a restaurant",
				Flags:  []cli.Flag{restaurantFlag()},
				Action: r.SessionEnd,
			},
		},
	}
}

// requestCommand handles song request operations
func requestCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "request",
		Aliases: []string{"req"},
		Usage:   "Submit and manage song requests",
		Commands: []*cli.Command{
			{
				Name:  "add",
				Usage: "Request a song",
				Flags: []cli.Flag{
					restaurantFlag(),
					&cli.StringFlag{
						Name:     "song-id",
						Usage:    "Catalog id of the song",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "title",
						Usage:    "Song title",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "artist",
						Usage:    "Song artist",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "album",
						Usage: "Song album",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.RequestAdd,
			},
			{
				Name:  "cancel",
				Usage: "Cancel one of your pending requests",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags:  []cli.Flag{restaurantFlag()},
				Action: r.RequestCancel,
			},
			{
				Name:  "list",
				Usage: "List your requests with positions and estimated waits",
				Flags: []cli.Flag{
					restaurantFlag(),
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.RequestList,
			},
			{
				Name:  "position",
				Usage: "Show the queue position of one request",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags:  []cli.Flag{restaurantFlag()},
				Action: r.RequestPosition,
			},
		},
	}
}

// queueCommand handles operator queue operations
func queueCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "queue",
		Usage: "View and operate the restaurant queue",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Show the full queue",
				Flags: []cli.Flag{
					restaurantFlag(),
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "csv",
						Usage: "Output CSV",
					},
				},
				Action: r.QueueShow,
			},
			{
				Name:   "advance",
				Usage:  "Complete the playing song and promote the next request",
				Flags:  []cli.Flag{restaurantFlag()},
				Action: r.QueueAdvance,
			},
			{
				Name:  "top",
				Usage: "Move a pending request to the top of the queue",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags:  []cli.Flag{restaurantFlag()},
				Action: r.QueueTop,
			},
		},
	}
}

// favoritesCommand handles favorite song operations
func favoritesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "favorites",
		Aliases: []string{"fav"},
		Usage:   "Manage your favorite songs",
		Commands: []*cli.Command{
			{
				Name:  "toggle",
				Usage: "Favorite or unfavorite a song",
				Flags: []cli.Flag{
					restaurantFlag(),
					&cli.StringFlag{
						Name:     "song-id",
						Usage:    "Catalog id of the song",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "title",
						Usage:    "Song title",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "artist",
						Usage:    "Song artist",
						Required: true,
					},
				},
				Action: r.FavoritesToggle,
			},
			{
				Name:  "list",
				Usage: "List your favorites",
				Flags: []cli.Flag{
					restaurantFlag(),
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "csv",
						Usage: "Output CSV",
					},
				},
				Action: r.FavoritesList,
			},
		},
	}
}

// loginCommand handles registered-account sign in
func loginCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "login",
		Usage:  "Sign in with a registered account via the browser",
		Flags:  []cli.Flag{restaurantFlag()},
		Action: r.Login,
	}
}

// setupCommand handles setup operations for the local database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize database and run migrations",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.SetupDatabase,
	}
}

// tuiCommand launches the operator console
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "tui",
		Usage:  "Launch the interactive operator console",
		Flags:  []cli.Flag{restaurantFlag()},
		Action: r.TUI,
	}
}
