package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	app "github.com/okian/skillmatrix/internal/app"
	"github.com/okian/skillmatrix/internal/domain/model"
	"github.com/okian/skillmatrix/pkg/logger"
	"github.com/urfave/cli/v3"
)

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{Name: "json", Usage: "output raw JSON"}
}

func matrixCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:  "matrix",
		Usage: "Show the training matrix",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "department"},
			&cli.StringFlag{Name: "role"},
			&cli.BoolFlag{Name: "all", Usage: "include inactive employees"},
			jsonFlag(),
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			f := model.FilterOptions{
				Department: c.String("department"),
				Role:       c.String("role"),
				ActiveOnly: model.Bool(e.cfg.ActiveOnly && !c.Bool("all")),
			}
			return e.withService(ctx, false, func(svc *app.Service) error {
				if err := svc.Settings().LoadSettings(ctx); err != nil {
					logger.Get().Warn(ctx, "using default level labels", logger.Error(err))
				}
				if err := svc.SetFilters(ctx, f); err != nil {
					return err
				}
				data := svc.Snapshot()
				if c.Bool("json") {
					return printJSON(e.out, data)
				}
				printMatrix(e.out, data, svc.Progress(), svc.Level)
				return nil
			})
		},
	}
}

func scoreCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:  "score",
		Usage: "Score commands",
		Commands: []*cli.Command{
			{
				Name:  "set",
				Usage: "Record an employee's level on a training column",
				Flags: []cli.Flag{
					&cli.Int64Flag{Name: "employee", Required: true},
					&cli.StringFlag{Name: "column", Required: true},
					&cli.IntFlag{Name: "level", Required: true},
					&cli.StringFlag{Name: "notes"},
					jsonFlag(),
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return e.withService(ctx, false, func(svc *app.Service) error {
						// Level bounds come from the server's level configuration.
						if err := svc.Settings().LoadSettings(ctx); err != nil {
							return err
						}
						score, err := svc.UpdateScore(ctx, c.Int64("employee"), c.String("column"), c.Int("level"), c.String("notes"))
						if err != nil {
							return err
						}
						if c.Bool("json") {
							return printJSON(e.out, score)
						}
						printKV(e.out, [][2]string{
							{"employee_id", fmt.Sprint(score.EmployeeID)},
							{"column_id", score.ColumnID},
							{"level", fmt.Sprintf("%d (%s)", score.Level, svc.Level(score.Level).Label)},
							{"updated_by", orDash(score.UpdatedBy)},
						})
						return nil
					})
				},
			},
		},
	}
}

func employeeCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:  "employee",
		Usage: "Employee commands",
		Commands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Create an employee",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Required: true},
					&cli.StringFlag{Name: "role", Required: true},
					&cli.StringFlag{Name: "department"},
					&cli.StringFlag{Name: "avatar"},
					jsonFlag(),
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					req := model.CreateEmployeeRequest{
						Name:       c.String("name"),
						Role:       c.String("role"),
						Department: c.String("department"),
						Avatar:     c.String("avatar"),
					}
					return e.withService(ctx, false, func(svc *app.Service) error {
						emp, err := svc.CreateEmployee(ctx, req)
						if err != nil {
							return err
						}
						if c.Bool("json") {
							return printJSON(e.out, emp)
						}
						printEmployees(e.out, []model.Employee{emp})
						return nil
					})
				},
			},
			{
				Name:  "delete",
				Usage: "Delete an employee",
				Flags: []cli.Flag{&cli.Int64Flag{Name: "id", Required: true}},
				Action: func(ctx context.Context, c *cli.Command) error {
					return e.withService(ctx, false, func(svc *app.Service) error {
						if err := svc.DeleteEmployee(ctx, c.Int64("id")); err != nil {
							return err
						}
						_, err := fmt.Fprintf(e.out, "deleted employee %d\n", c.Int64("id"))
						return err
					})
				},
			},
		},
	}
}

func columnCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:  "column",
		Usage: "Training column commands",
		Commands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Create a training column",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "id", Usage: "slug; assigned by the server when empty"},
					&cli.StringFlag{Name: "title", Required: true},
					&cli.StringFlag{Name: "description"},
					&cli.StringFlag{Name: "category"},
					&cli.IntFlag{Name: "target-level", Value: 2},
					&cli.IntFlag{Name: "sort-order"},
					jsonFlag(),
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					req := model.CreateTrainingColumnRequest{
						ID:          c.String("id"),
						Title:       c.String("title"),
						Description: c.String("description"),
						Category:    c.String("category"),
						TargetLevel: c.Int("target-level"),
					}
					if c.IsSet("sort-order") {
						req.SortOrder = model.Int(c.Int("sort-order"))
					}
					return e.withService(ctx, false, func(svc *app.Service) error {
						col, err := svc.CreateColumn(ctx, req)
						if err != nil {
							return err
						}
						if c.Bool("json") {
							return printJSON(e.out, col)
						}
						printColumns(e.out, []model.TrainingColumn{col})
						return nil
					})
				},
			},
			{
				Name:  "delete",
				Usage: "Delete a training column",
				Flags: []cli.Flag{&cli.StringFlag{Name: "id", Required: true}},
				Action: func(ctx context.Context, c *cli.Command) error {
					return e.withService(ctx, false, func(svc *app.Service) error {
						if err := svc.DeleteColumn(ctx, c.String("id")); err != nil {
							return err
						}
						_, err := fmt.Fprintf(e.out, "deleted column %s\n", c.String("id"))
						return err
					})
				},
			},
			{
				Name:  "reorder",
				Usage: "Move a training column to a new position",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "id", Required: true},
					&cli.IntFlag{Name: "order", Required: true},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return e.withService(ctx, false, func(svc *app.Service) error {
						if err := svc.ReorderColumn(ctx, c.String("id"), c.Int("order")); err != nil {
							return err
						}
						_, err := fmt.Fprintf(e.out, "moved column %s to %d\n", c.String("id"), c.Int("order"))
						return err
					})
				},
			},
		},
	}
}

func levelsCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:  "levels",
		Usage: "Show the configured levels",
		Flags: []cli.Flag{jsonFlag()},
		Action: func(ctx context.Context, c *cli.Command) error {
			return e.withService(ctx, false, func(svc *app.Service) error {
				if err := svc.Settings().LoadSettings(ctx); err != nil {
					return err
				}
				levels := svc.Settings().Settings().Levels
				if c.Bool("json") {
					return printJSON(e.out, levels)
				}
				printLevels(e.out, levels)
				return nil
			})
		},
	}
}

func analyticsCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:  "analytics",
		Usage: "Show dashboard analytics",
		Flags: []cli.Flag{&cli.StringFlag{Name: "department"}, jsonFlag()},
		Action: func(ctx context.Context, c *cli.Command) error {
			return e.withService(ctx, false, func(svc *app.Service) error {
				data, err := svc.Analytics(ctx, c.String("department"))
				if err != nil {
					return err
				}
				if c.Bool("json") {
					return printJSON(e.out, data)
				}
				printAnalytics(e.out, data)
				return nil
			})
		},
	}
}

func exportCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export the matrix as CSV or JSON",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "format", Value: "csv", Usage: "csv or json"},
			&cli.StringFlag{Name: "out", Usage: "write to file instead of stdout"},
			&cli.StringFlag{Name: "department"},
			&cli.StringFlag{Name: "role"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			opts := model.ExportOptions{Department: c.String("department"), Role: c.String("role")}
			format := strings.ToLower(c.String("format"))
			if format != "csv" && format != "json" {
				return fmt.Errorf("unknown export format %q", c.String("format"))
			}
			return e.withService(ctx, false, func(svc *app.Service) error {
				var body []byte
				if format == "csv" {
					b, err := svc.ExportCSV(ctx, opts)
					if err != nil {
						return err
					}
					body = b
				} else {
					data, err := svc.ExportJSON(ctx, opts)
					if err != nil {
						return err
					}
					b, err := jsonMarshal(data)
					if err != nil {
						return err
					}
					body = append(b, '\n')
				}
				if path := c.String("out"); path != "" {
					if err := os.WriteFile(path, body, 0o644); err != nil {
						return err
					}
					_, err := fmt.Fprintf(e.out, "wrote %d bytes to %s\n", len(body), path)
					return err
				}
				_, err := e.out.Write(body)
				return err
			})
		},
	}
}

func loginCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Sign in and store the session",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "username", Required: true},
			&cli.StringFlag{Name: "role", Required: true, Usage: "admin, manager or employee"},
			&cli.StringFlag{Name: "token", Usage: "bearer token sent with every request"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return e.withService(ctx, false, func(svc *app.Service) error {
				u, err := svc.Login(ctx, c.String("username"), model.Role(c.String("role")), c.String("token"))
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(e.out, "logged in as %s (%s)\n", u.Username, u.Role)
				return err
			})
		},
	}
}

func logoutCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "Sign out and forget the session",
		Action: func(ctx context.Context, _ *cli.Command) error {
			return e.withService(ctx, false, func(svc *app.Service) error {
				if err := svc.Logout(ctx); err != nil {
					return err
				}
				_, err := fmt.Fprintln(e.out, "logged out")
				return err
			})
		},
	}
}

func whoamiCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:  "whoami",
		Usage: "Show the signed-in user and their permissions",
		Flags: []cli.Flag{jsonFlag()},
		Action: func(ctx context.Context, c *cli.Command) error {
			return e.withService(ctx, false, func(svc *app.Service) error {
				u, ok := svc.Auth().User()
				if c.Bool("json") {
					if !ok {
						return printJSON(e.out, nil)
					}
					return printJSON(e.out, u)
				}
				if !ok {
					_, err := fmt.Fprintln(e.out, "not signed in")
					return err
				}
				printUser(e.out, u)
				return nil
			})
		},
	}
}
