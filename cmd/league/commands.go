package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	standingsservice "github.com/Black-And-White-Club/rally-league/app/modules/standings/application"
	standingsdomain "github.com/Black-And-White-Club/rally-league/app/modules/standings/domain"
	standingsdb "github.com/Black-And-White-Club/rally-league/app/modules/standings/infrastructure/repositories"
	"github.com/Black-And-White-Club/rally-league/pkg/results"
	"github.com/google/uuid"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

var (
	seasonFlag = &cli.StringFlag{Name: "season", Usage: "season id", Required: true}
	actorFlag  = &cli.StringFlag{Name: "by", Usage: "admin id issuing the command", Required: true, EnvVars: []string{"LEAGUE_ADMIN"}}
	jobFlag    = &cli.StringFlag{Name: "job", Usage: "recalculation job id", Required: true}
)

// outcome turns a service result into a value or an error fit for the
// terminal.
func outcome[S any](res results.OperationResult[S, error], err error) (*S, error) {
	if err != nil {
		return nil, err
	}
	if res.IsFailure() {
		return nil, fmt.Errorf("rejected (%s): %w", standingsdomain.KindOf(*res.Failure), *res.Failure)
	}
	if res.Success == nil {
		return nil, errors.New("operation returned no result")
	}
	return res.Success, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseJobID(c *cli.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.String("job"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid job id %q: %w", c.String("job"), err)
	}
	return id, nil
}

// loadParameters reads a parameter file. Fields the file leaves out keep
// their default values.
func loadParameters(path string) (standingsdomain.RatingParameters, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return standingsdomain.RatingParameters{}, fmt.Errorf("failed to read parameters file: %w", err)
	}
	params := standingsdomain.DefaultRatingParameters()
	if err := yaml.Unmarshal(data, &params); err != nil {
		return standingsdomain.RatingParameters{}, fmt.Errorf("failed to parse parameters file: %w", err)
	}
	return params, nil
}

func paramsCommand() *cli.Command {
	return &cli.Command{
		Name:  "params",
		Usage: "rating parameters",
		Subcommands: []*cli.Command{
			{
				Name:  "publish",
				Usage: "publish a new parameter version from a YAML file",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "file", Usage: "parameters YAML", Required: true},
					actorFlag,
				},
				Action: func(c *cli.Context) error {
					params, err := loadParameters(c.String("file"))
					if err != nil {
						return err
					}
					return withSession(c, func(svc standingsservice.Service) error {
						published, err := outcome[standingsdomain.RatingParameters](svc.PublishParameters(c.Context, params, c.String("by")))
						if err != nil {
							return err
						}
						return printJSON(c.App.Writer, published)
					})
				},
			},
			{
				Name:  "show",
				Usage: "print the active parameter version",
				Action: func(c *cli.Context) error {
					return withSession(c, func(svc standingsservice.Service) error {
						active, err := outcome[standingsdomain.RatingParameters](svc.GetActiveParameters(c.Context))
						if err != nil {
							return err
						}
						return printJSON(c.App.Writer, active)
					})
				},
			},
		},
	}
}

func recalcCommand() *cli.Command {
	return &cli.Command{
		Name:  "recalc",
		Usage: "recalculation jobs",
		Subcommands: []*cli.Command{
			{
				Name:  "submit",
				Usage: "submit a recalculation job",
				Flags: []cli.Flag{
					seasonFlag,
					&cli.StringFlag{Name: "scope", Value: string(standingsdomain.ScopeSeason), Usage: "match, player, division or season"},
					&cli.StringFlag{Name: "target", Usage: "match, player or division id for narrower scopes"},
					actorFlag,
					&cli.BoolFlag{Name: "preview", Usage: "generate the preview right away"},
				},
				Action: func(c *cli.Context) error {
					scope, err := standingsdomain.ParseScope(c.String("scope"))
					if err != nil {
						return err
					}
					return withSession(c, func(svc standingsservice.Service) error {
						job, err := outcome[standingsservice.RecalculationJob](svc.SubmitRecalculation(c.Context, standingsservice.RecalculationRequest{
							SeasonID:    c.String("season"),
							Scope:       scope,
							TargetID:    c.String("target"),
							RequestedBy: c.String("by"),
						}))
						if err != nil {
							return err
						}
						if c.Bool("preview") {
							if job, err = outcome[standingsservice.RecalculationJob](svc.GenerateRecalculationPreview(c.Context, job.ID)); err != nil {
								return err
							}
						}
						return printJSON(c.App.Writer, job)
					})
				},
			},
			{
				Name:  "preview",
				Usage: "generate the preview of a pending job",
				Flags: []cli.Flag{jobFlag},
				Action: func(c *cli.Context) error {
					return jobAction(c, func(svc standingsservice.Service, id uuid.UUID) (results.OperationResult[standingsservice.RecalculationJob, error], error) {
						return svc.GenerateRecalculationPreview(c.Context, id)
					})
				},
			},
			{
				Name:  "apply",
				Usage: "apply a previewed job",
				Flags: []cli.Flag{jobFlag, actorFlag},
				Action: func(c *cli.Context) error {
					return jobAction(c, func(svc standingsservice.Service, id uuid.UUID) (results.OperationResult[standingsservice.RecalculationJob, error], error) {
						return svc.ApplyRecalculation(c.Context, id, c.String("by"))
					})
				},
			},
			{
				Name:  "show",
				Usage: "print a job",
				Flags: []cli.Flag{jobFlag},
				Action: func(c *cli.Context) error {
					return jobAction(c, func(svc standingsservice.Service, id uuid.UUID) (results.OperationResult[standingsservice.RecalculationJob, error], error) {
						return svc.GetRecalculation(c.Context, id)
					})
				},
			},
		},
	}
}

func jobAction(c *cli.Context, call func(standingsservice.Service, uuid.UUID) (results.OperationResult[standingsservice.RecalculationJob, error], error)) error {
	id, err := parseJobID(c)
	if err != nil {
		return err
	}
	return withSession(c, func(svc standingsservice.Service) error {
		job, err := outcome[standingsservice.RecalculationJob](call(svc, id))
		if err != nil {
			return err
		}
		return printJSON(c.App.Writer, job)
	})
}

func seasonCommand() *cli.Command {
	lockAction := func(call func(c *cli.Context, svc standingsservice.Service) (results.OperationResult[standingsdomain.SeasonLock, error], error)) cli.ActionFunc {
		return func(c *cli.Context) error {
			return withSession(c, func(svc standingsservice.Service) error {
				lock, err := outcome[standingsdomain.SeasonLock](call(c, svc))
				if err != nil {
					return err
				}
				return printJSON(c.App.Writer, lock)
			})
		}
	}

	return &cli.Command{
		Name:  "season",
		Usage: "season lock management",
		Subcommands: []*cli.Command{
			{
				Name:  "lock",
				Usage: "lock a season against live results and recalculation",
				Flags: []cli.Flag{
					seasonFlag,
					actorFlag,
					&cli.BoolFlag{Name: "export", Usage: "store a standings and ratings snapshot first"},
				},
				Action: lockAction(func(c *cli.Context, svc standingsservice.Service) (results.OperationResult[standingsdomain.SeasonLock, error], error) {
					return svc.LockSeason(c.Context, standingsservice.LockRequest{
						SeasonID: c.String("season"),
						AdminID:  c.String("by"),
						Export:   c.Bool("export"),
					})
				}),
			},
			{
				Name:  "unlock",
				Usage: "unlock a season",
				Flags: []cli.Flag{seasonFlag, actorFlag},
				Action: lockAction(func(c *cli.Context, svc standingsservice.Service) (results.OperationResult[standingsdomain.SeasonLock, error], error) {
					return svc.UnlockSeason(c.Context, c.String("season"), c.String("by"))
				}),
			},
			{
				Name:  "override",
				Usage: "allow or forbid recalculation of a locked season",
				Flags: []cli.Flag{
					seasonFlag,
					actorFlag,
					&cli.BoolFlag{Name: "allowed", Value: true, Usage: "whether recalculation may write"},
				},
				Action: lockAction(func(c *cli.Context, svc standingsservice.Service) (results.OperationResult[standingsdomain.SeasonLock, error], error) {
					return svc.SetLockOverride(c.Context, c.String("season"), c.String("by"), c.Bool("allowed"))
				}),
			},
			{
				Name:  "status",
				Usage: "print lock state and data freshness",
				Flags: []cli.Flag{seasonFlag},
				Action: func(c *cli.Context) error {
					return withSession(c, func(svc standingsservice.Service) error {
						status, err := outcome[standingsservice.SeasonStatus](svc.GetSeasonStatus(c.Context, c.String("season")))
						if err != nil {
							return err
						}
						return printJSON(c.App.Writer, status)
					})
				},
			},
		},
	}
}

func adjustCommand() *cli.Command {
	return &cli.Command{
		Name:  "adjust",
		Usage: "set a player's rating by hand",
		Flags: []cli.Flag{
			seasonFlag,
			actorFlag,
			&cli.StringFlag{Name: "player", Usage: "player id", Required: true},
			&cli.IntFlag{Name: "rating", Usage: "new rating", Required: true},
			&cli.StringFlag{Name: "type", Value: string(standingsdb.AdjustmentCorrection), Usage: "correction, appeal-resolution, admin-override or migration"},
			&cli.StringFlag{Name: "reason", Usage: "why the rating changes", Required: true},
		},
		Action: func(c *cli.Context) error {
			return withSession(c, func(svc standingsservice.Service) error {
				granted, err := outcome[standingsservice.AdjustmentGranted](svc.GrantAdjustment(c.Context, standingsservice.AdjustmentRequest{
					SeasonID:  c.String("season"),
					PlayerID:  c.String("player"),
					AdminID:   c.String("by"),
					Type:      standingsdb.AdjustmentType(c.String("type")),
					NewRating: c.Int("rating"),
					Reason:    c.String("reason"),
				}))
				if err != nil {
					return err
				}
				return printJSON(c.App.Writer, granted)
			})
		},
	}
}

func chartCommand() *cli.Command {
	return &cli.Command{
		Name:  "chart",
		Usage: "render a player's rating history as PNG",
		Flags: []cli.Flag{
			seasonFlag,
			&cli.StringFlag{Name: "player", Usage: "player id", Required: true},
			&cli.StringFlag{Name: "out", Usage: "output file", Value: "rating.png"},
		},
		Action: func(c *cli.Context) error {
			return withSession(c, func(svc standingsservice.Service) error {
				png, err := outcome[[]byte](svc.RenderRatingChart(c.Context, c.String("season"), c.String("player")))
				if err != nil {
					return err
				}
				if err := os.WriteFile(c.String("out"), *png, 0o644); err != nil {
					return fmt.Errorf("failed to write chart: %w", err)
				}
				_, err = fmt.Fprintf(c.App.Writer, "wrote %s (%d bytes)\n", c.String("out"), len(*png))
				return err
			})
		},
	}
}
