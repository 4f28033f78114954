// Command reliefctl administers a relief server database directly: it
// applies migrations, seeds data, manages accounts and lists records.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/reliefhub/relief-server/internal/app"
	"github.com/reliefhub/relief-server/internal/config"
	"github.com/reliefhub/relief-server/internal/models"
	"github.com/reliefhub/relief-server/internal/services"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	jsonOutput bool
	verbose    bool
)

// cliActor is the admin identity recorded in the activity log for CLI changes
var cliActor = models.Actor{ID: "reliefctl", Roles: []models.Role{models.RoleAdmin}}

var rootCmd = &cobra.Command{
	Use:   "reliefctl",
	Short: "Relief server administration",
	Long: `reliefctl works against the database configured for the relief server
(DATABASE_DRIVER, SQLITE_PATH or DATABASE_URL, read from the environment or .env).`,
	SilenceUsage: true,
}

func main() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log service activity to stderr")
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func registerCommands() {
	user := &cobra.Command{Use: "user", Short: "Manage accounts"}
	user.AddCommand(userCreateCmd(), userGrantCmd())

	incidents := &cobra.Command{Use: "incidents", Short: "Incident reports"}
	incidents.AddCommand(incidentListCmd())
	donations := &cobra.Command{Use: "donations", Short: "Donations"}
	donations.AddCommand(donationListCmd())
	tasks := &cobra.Command{Use: "tasks", Short: "Volunteer tasks"}
	tasks.AddCommand(taskListCmd())

	rootCmd.AddCommand(migrateCmd(), seedCmd(), user, tokenCmd(), incidents, donations, tasks)
}

func newLogger() *zap.SugaredLogger {
	zc := zap.NewDevelopmentConfig()
	zc.OutputPaths = []string{"stderr"}
	if !verbose {
		zc.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	logger, err := zc.Build()
	if err != nil {
		return zap.NewNop().Sugar()
	}
	return logger.Sugar()
}

// withApp opens the configured store, runs fn against the service graph
// and closes the store.
func withApp(ctx context.Context, fn func(ctx context.Context, cfg *config.Config, a *app.App) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger()
	defer logger.Sync()

	st, err := app.OpenStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(ctx, cfg, app.New(st, cfg, logger))
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable() table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.SetStyle(table.StyleLight)
	return tw
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, cfg *config.Config, a *app.App) error {
				fmt.Printf("migrations applied (%s)\n", cfg.DatabaseDriver)
				return nil
			})
		},
	}
}

func seedCmd() *cobra.Command {
	var file string
	var force bool
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the admin account and sample volunteer tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, cfg *config.Config, a *app.App) error {
				entries := services.DefaultSeedTasks
				if file != "" {
					loaded, err := services.LoadSeedFile(file)
					if err != nil {
						return err
					}
					entries = loaded
				}
				admin, err := a.Seeder.SeedAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword)
				if err != nil {
					return err
				}
				n, err := a.Seeder.SeedTasks(ctx, admin, entries, !force)
				if err != nil {
					return err
				}
				fmt.Printf("admin %s ready, %d task(s) created\n", cfg.AdminEmail, n)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML file with a top-level tasks list")
	cmd.Flags().BoolVar(&force, "force", false, "seed even when tasks already exist")
	return cmd
}

func userCreateCmd() *cobra.Command {
	var email, password, fullName string
	var roles []string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed := make([]models.Role, 0, len(roles))
			for _, r := range roles {
				role, err := models.ParseRole(r)
				if err != nil {
					return err
				}
				parsed = append(parsed, role)
			}
			if len(parsed) == 0 {
				parsed = append(parsed, models.RoleRegularUser)
			}
			return withApp(cmd.Context(), func(ctx context.Context, cfg *config.Config, a *app.App) error {
				u, err := a.Auth.CreateUser(ctx, strings.ToLower(strings.TrimSpace(email)), password, fullName, parsed)
				if err != nil {
					return err
				}
				if jsonOutput {
					return printJSON(u)
				}
				fmt.Printf("created %s (%s)\n", u.Email, u.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	cmd.Flags().StringVar(&fullName, "name", "", "full name")
	cmd.Flags().StringSliceVar(&roles, "role", nil, "role to hold (repeatable): Admin, Donor, Volunteer, RegularUser")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func userGrantCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "grant <email> <role>",
		Short: "Grant a role to an account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, cfg *config.Config, a *app.App) error {
				u, err := a.Store.GetUserByEmail(ctx, strings.ToLower(args[0]))
				if err != nil {
					return fmt.Errorf("lookup %s: %w", args[0], err)
				}
				u, err = a.Auth.GrantRole(ctx, cliActor, u.ID, args[1])
				if err != nil {
					return err
				}
				fmt.Printf("%s now holds %v\n", u.Email, u.Roles)
				return nil
			})
		},
	}
}

func tokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "token <email>",
		Short: "Issue a bearer token for an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, cfg *config.Config, a *app.App) error {
				u, err := a.Store.GetUserByEmail(ctx, strings.ToLower(args[0]))
				if err != nil {
					return fmt.Errorf("lookup %s: %w", args[0], err)
				}
				resp, err := a.Auth.Token(ctx, u.ID)
				if err != nil {
					return err
				}
				if jsonOutput {
					return printJSON(resp)
				}
				fmt.Println(resp.Token)
				return nil
			})
		},
	}
}

type listFlags struct {
	status string
	limit  int
}

func (f *listFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.status, "status", "", "status filter")
	cmd.Flags().IntVar(&f.limit, "limit", 50, "maximum rows")
}

func incidentListCmd() *cobra.Command {
	var f listFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List incident reports, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, cfg *config.Config, a *app.App) error {
				list, err := a.Incidents.List(ctx, f.status, f.limit)
				if err != nil {
					return err
				}
				if jsonOutput {
					return printJSON(list)
				}
				tw := newTable()
				tw.AppendHeader(table.Row{"ID", "Title", "Location", "Status", "Priority", "Reported"})
				for _, r := range list {
					tw.AppendRow(table.Row{r.ID, r.Title, r.Location, r.Status, r.Priority, r.DateReported.Format("2006-01-02 15:04")})
				}
				tw.Render()
				return nil
			})
		},
	}
	f.bind(cmd)
	return cmd
}

func donationListCmd() *cobra.Command {
	var f listFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List donations, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, cfg *config.Config, a *app.App) error {
				list, err := a.Donations.List(ctx, f.status, f.limit)
				if err != nil {
					return err
				}
				if jsonOutput {
					return printJSON(list)
				}
				tw := newTable()
				tw.AppendHeader(table.Row{"ID", "Donor", "Resource", "Qty", "Status", "Donated"})
				var total int
				for _, d := range list {
					tw.AppendRow(table.Row{d.ID, d.DonorName, d.ResourceType, d.Quantity, d.Status, d.DateDonated.Format("2006-01-02")})
					total += d.Quantity
				}
				tw.AppendFooter(table.Row{"", "", "Total", total, "", ""})
				tw.Render()
				return nil
			})
		},
	}
	f.bind(cmd)
	return cmd
}

func taskListCmd() *cobra.Command {
	var f listFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List volunteer tasks by task date",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, cfg *config.Config, a *app.App) error {
				list, err := a.Tasks.List(ctx, f.status, f.limit)
				if err != nil {
					return err
				}
				if jsonOutput {
					return printJSON(list)
				}
				tw := newTable()
				tw.AppendHeader(table.Row{"ID", "Title", "Date", "Status", "Priority", "Volunteer"})
				for _, t := range list {
					volunteer := ""
					if t.AssignedVolunteerID != nil {
						volunteer = *t.AssignedVolunteerID
					}
					tw.AppendRow(table.Row{t.ID, t.Title, t.TaskDate.Format("2006-01-02 15:04"), t.Status, t.Priority, volunteer})
				}
				tw.Render()
				return nil
			})
		},
	}
	f.bind(cmd)
	return cmd
}
