package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"northstar/internal/app"
	"northstar/internal/config"
	"northstar/internal/db"
	"northstar/internal/domain"
	"northstar/internal/engine"
	"northstar/internal/repo"
	"northstar/internal/server"
)

var rootCmd = &cobra.Command{
	Use:   "ns",
	Short: "Northstar CLI",
	Long: `Northstar tracks objectives and key results for a team.
Concepts:
- Workspace: your .northstar directory holding the database; northstar.yml seeds the user directory.
- Objective: a goal with owners, a category (individual or team), and key results.
- Key results: measurable sub-goals, percent based or target based; an objective whose key results are all complete displays as completed.
- Lifecycle: live statuses (active, on_track, at_risk, off_track, completed), plus archived and deleted; purge permanently removes a soft-deleted objective.
- Comments: discussion threads on objectives; @[Name](userId) mentions notify the mentioned users.
- Event log: diary of changes, view with 'ns log tail'.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		workspace := viper.GetString("workspace")
		if _, err := db.EnsureWorkspace(workspace); err != nil {
			return err
		}
		return nil
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("NORTHSTAR")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("actor-id", "local-user", "actor identifier")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("actor-id", rootCmd.PersistentFlags().Lookup("actor-id"))
}

func registerCommands() {
	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(objectiveCmd())
	rootCmd.AddCommand(commentCmd())
	rootCmd.AddCommand(notificationCmd())
	rootCmd.AddCommand(userCmd())
	rootCmd.AddCommand(apikeyCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(serveCmd())
}

func initCmd() *cobra.Command {
	var orgID string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a workspace config",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			path := config.Path(workspace)
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}
			if err := os.WriteFile(path, []byte(config.GenerateDefault(orgID)), 0o644); err != nil {
				return err
			}
			fmt.Printf("Wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&orgID, "org", "default-org", "organization id")
	return cmd
}

func objectiveCmd() *cobra.Command {
	obj := &cobra.Command{
		Use:   "objective",
		Short: "Manage objectives",
		Long:  "Objectives carry owners, key results, and a lifecycle status. Individual objectives have exactly one owner; team objectives are visible to everyone.",
	}
	obj.AddCommand(objectiveCreateCmd())
	obj.AddCommand(objectiveListCmd())
	obj.AddCommand(objectiveShowCmd())
	obj.AddCommand(objectiveUpdateCmd())
	obj.AddCommand(objectiveArchiveCmd())
	obj.AddCommand(objectiveRestoreCmd())
	obj.AddCommand(objectiveDeleteCmd())
	obj.AddCommand(objectivePurgeCmd())
	return obj
}

func objectiveCreateCmd() *cobra.Command {
	var text, description, category, status, startDate, endDate, department string
	var owners []string
	var keyResultsJSON string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an objective",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				opts := engine.ObjectiveCreateOptions{
					Text:        text,
					Description: description,
					Category:    category,
					Status:      status,
					StartDate:   startDate,
					EndDate:     endDate,
					Department:  department,
					ActorID:     viper.GetString("actor-id"),
				}
				for _, id := range owners {
					opts.Owners = append(opts.Owners, domain.OwnerRef{UserID: id})
				}
				if keyResultsJSON != "" {
					if err := json.Unmarshal([]byte(keyResultsJSON), &opts.KeyResults); err != nil {
						return fmt.Errorf("invalid --key-results: %w", err)
					}
				}
				o, err := e.CreateObjective(ctx, opts)
				if err != nil {
					return err
				}
				return printJSONOrTable(o)
			})
		},
	}
	cmd.Flags().StringVar(&text, "text", "", "objective text")
	cmd.Flags().StringVar(&description, "description", "", "description")
	cmd.Flags().StringVar(&category, "category", "team", "individual or team")
	cmd.Flags().StringSliceVar(&owners, "owner", nil, "owner user id (repeatable)")
	cmd.Flags().StringVar(&keyResultsJSON, "key-results", "", "key results as a JSON array")
	cmd.Flags().StringVar(&status, "status", "", "initial status")
	cmd.Flags().StringVar(&startDate, "start", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&endDate, "end", "", "end date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&department, "department", "", "department")
	_ = cmd.MarkFlagRequired("text")
	return cmd
}

func objectiveListCmd() *cobra.Command {
	var f engine.ListFilters
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List visible objectives",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.ListObjectives(ctx, viper.GetString("actor-id"), f)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Objective", "Category", "Status", "Display", "Owners", "End"})
				for _, o := range items {
					ownerIDs := make([]string, 0, len(o.Owners))
					for _, own := range o.Owners {
						ownerIDs = append(ownerIDs, own.UserID)
					}
					tw.AppendRow(table.Row{o.ID, o.Text, o.Category, o.Status, o.DisplayStatus(), strings.Join(ownerIDs, ","), o.EndDate})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&f.Status, "status", "", "stored status filter")
	cmd.Flags().StringVar(&f.Category, "category", "", "category filter")
	cmd.Flags().StringVar(&f.Department, "department", "", "department filter")
	cmd.Flags().StringSliceVar(&f.CreatedBy, "created-by", nil, "creator filter (repeatable)")
	cmd.Flags().StringSliceVar(&f.Owners, "owner", nil, "owner filter (repeatable)")
	cmd.Flags().StringVar(&f.Date, "date", "", "end date filter (YYYY-MM-DD)")
	cmd.Flags().StringSliceVar(&f.Quarters, "quarter", nil, "quarter filter, e.g. 2024-Q2 (repeatable)")
	cmd.Flags().StringVar(&f.Search, "search", "", "text search")
	return cmd
}

func objectiveShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show an objective",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				o, err := e.GetObjective(ctx, args[0])
				if err != nil {
					return err
				}
				owners, err := e.EnrichOwners(ctx, o.Owners)
				if err != nil {
					return err
				}
				out := map[string]any{
					"objective":     o,
					"displayStatus": o.DisplayStatus(),
					"owners":        owners,
				}
				return printJSONOrTable(out)
			})
		},
	}
	return cmd
}

func objectiveUpdateCmd() *cobra.Command {
	var text, description, category, status, startDate, endDate, department string
	var owners []string
	var keyResultsJSON string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update an objective",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				var upd engine.ObjectiveUpdate
				if cmd.Flags().Changed("text") {
					upd.Text = &text
				}
				if cmd.Flags().Changed("description") {
					upd.Description = &description
				}
				if cmd.Flags().Changed("category") {
					upd.Category = &category
				}
				if cmd.Flags().Changed("status") {
					upd.Status = &status
				}
				if cmd.Flags().Changed("start") {
					upd.StartDate = &startDate
				}
				if cmd.Flags().Changed("end") {
					upd.EndDate = &endDate
				}
				if cmd.Flags().Changed("department") {
					upd.Department = &department
				}
				if cmd.Flags().Changed("owner") {
					upd.OwnersProvided = true
					for _, id := range owners {
						upd.Owners = append(upd.Owners, domain.OwnerRef{UserID: id})
					}
				}
				if cmd.Flags().Changed("key-results") {
					upd.KeyResultsProvided = true
					if err := json.Unmarshal([]byte(keyResultsJSON), &upd.KeyResults); err != nil {
						return fmt.Errorf("invalid --key-results: %w", err)
					}
				}
				o, err := e.UpdateObjective(ctx, args[0], upd, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(o)
			})
		},
	}
	cmd.Flags().StringVar(&text, "text", "", "objective text")
	cmd.Flags().StringVar(&description, "description", "", "description")
	cmd.Flags().StringVar(&category, "category", "", "individual or team")
	cmd.Flags().StringSliceVar(&owners, "owner", nil, "owner user id (repeatable)")
	cmd.Flags().StringVar(&keyResultsJSON, "key-results", "", "key results as a JSON array")
	cmd.Flags().StringVar(&status, "status", "", "status")
	cmd.Flags().StringVar(&startDate, "start", "", "start date")
	cmd.Flags().StringVar(&endDate, "end", "", "end date")
	cmd.Flags().StringVar(&department, "department", "", "department")
	return cmd
}

func objectiveTransitionCmd(use, short string, fn func(context.Context, engine.Engine, string, string) (domain.Objective, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				o, err := fn(ctx, e, args[0], viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(o)
			})
		},
	}
}

func objectiveArchiveCmd() *cobra.Command {
	return objectiveTransitionCmd("archive <id>", "Archive an objective", func(ctx context.Context, e engine.Engine, id, actor string) (domain.Objective, error) {
		return e.ArchiveObjective(ctx, id, actor)
	})
}

func objectiveRestoreCmd() *cobra.Command {
	return objectiveTransitionCmd("restore <id>", "Restore an archived or deleted objective", func(ctx context.Context, e engine.Engine, id, actor string) (domain.Objective, error) {
		return e.RestoreObjective(ctx, id, actor)
	})
}

func objectiveDeleteCmd() *cobra.Command {
	return objectiveTransitionCmd("delete <id>", "Soft delete an objective", func(ctx context.Context, e engine.Engine, id, actor string) (domain.Objective, error) {
		return e.SoftDeleteObjective(ctx, id, actor)
	})
}

func objectivePurgeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "purge <id>",
		Short: "Permanently remove a soft-deleted objective",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				if err := e.PurgeObjective(ctx, args[0], viper.GetString("actor-id")); err != nil {
					return err
				}
				fmt.Printf("purged %s\n", args[0])
				return nil
			})
		},
	}
	return cmd
}

func commentCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "comment",
		Short: "Manage objective comments",
		Long:  "Comments support @[Name](userId) mentions; each mention notifies the referenced user, never the author.",
	}
	c.AddCommand(commentAddCmd())
	c.AddCommand(commentListCmd())
	c.AddCommand(commentDeleteCmd())
	return c
}

func commentAddCmd() *cobra.Command {
	var text string
	cmd := &cobra.Command{
		Use:   "add <objective-id>",
		Short: "Comment on an objective",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				c, err := e.CreateComment(ctx, args[0], viper.GetString("actor-id"), text)
				if err != nil {
					return err
				}
				return printJSONOrTable(c)
			})
		},
	}
	cmd.Flags().StringVar(&text, "text", "", "comment text")
	_ = cmd.MarkFlagRequired("text")
	return cmd
}

func commentListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list <objective-id>",
		Short: "List objective comments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.ListComments(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(items)
			})
		},
	}
	return cmd
}

func commentDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <comment-id>",
		Short: "Delete own comment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				return e.DeleteComment(ctx, args[0], viper.GetString("actor-id"))
			})
		},
	}
	return cmd
}

func notificationCmd() *cobra.Command {
	n := &cobra.Command{
		Use:   "notification",
		Short: "Manage notifications",
	}
	n.AddCommand(notificationListCmd())
	n.AddCommand(notificationReadCmd())
	return n
}

func notificationListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List my notifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				actorID := viper.GetString("actor-id")
				items, err := e.ListNotifications(ctx, actorID)
				if err != nil {
					return err
				}
				unread, err := e.UnreadCount(ctx, actorID)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(map[string]any{"unread": unread, "notifications": items})
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Type", "Title", "Read", "Created"})
				for _, n := range items {
					tw.AppendRow(table.Row{n.ID, n.Type, n.Title, n.Read, n.CreatedAt})
				}
				tw.Render()
				fmt.Printf("unread: %d\n", unread)
				return nil
			})
		},
	}
	return cmd
}

func notificationReadCmd() *cobra.Command {
	var ids []string
	cmd := &cobra.Command{
		Use:   "read",
		Short: "Mark notifications read (all unread when no --id given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				n, err := e.MarkNotificationsRead(ctx, viper.GetString("actor-id"), ids)
				if err != nil {
					return err
				}
				fmt.Printf("marked %d read\n", n)
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVar(&ids, "id", nil, "notification id (repeatable)")
	return cmd
}

func userCmd() *cobra.Command {
	u := &cobra.Command{
		Use:   "user",
		Short: "Manage the user directory",
	}
	u.AddCommand(userAddCmd())
	u.AddCommand(userListCmd())
	u.AddCommand(userShowCmd())
	return u
}

func userAddCmd() *cobra.Command {
	var id, name, email, avatarURL, role, department string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add or update a directory user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				u := domain.User{
					ID:         id,
					Name:       name,
					Email:      email,
					AvatarURL:  avatarURL,
					Role:       role,
					Department: department,
					CreatedAt:  time.Now().UTC().Format(time.RFC3339),
				}
				if err := e.Repo.UpsertUser(ctx, u); err != nil {
					return err
				}
				return printJSONOrTable(u)
			})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "user id")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "email")
	cmd.Flags().StringVar(&avatarURL, "avatar", "", "avatar url")
	cmd.Flags().StringVar(&role, "role", "", "role (admin grants edit on all objectives)")
	cmd.Flags().StringVar(&department, "department", "", "department id")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func userListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List directory users",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.Repo.ListUsers(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Name", "Email", "Role", "Department"})
				for _, u := range items {
					tw.AppendRow(table.Row{u.ID, u.Name, u.Email, u.Role, u.Department})
				}
				tw.Render()
				return nil
			})
		},
	}
	return cmd
}

func userShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a directory user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				u, err := e.Repo.GetUser(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(u)
			})
		},
	}
	return cmd
}

func apikeyCmd() *cobra.Command {
	k := &cobra.Command{
		Use:   "apikey",
		Short: "Manage API keys",
	}
	k.AddCommand(apikeyCreateCmd())
	k.AddCommand(apikeyListCmd())
	k.AddCommand(apikeyRevokeCmd())
	return k
}

func apikeyCreateCmd() *cobra.Command {
	var actor, name string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an API key for an actor",
		RunE: func(cmd *cobra.Command, args []string) error {
			if actor == "" {
				actor = viper.GetString("actor-id")
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				raw := make([]byte, 24)
				if _, err := rand.Read(raw); err != nil {
					return err
				}
				secret := "ns_" + hex.EncodeToString(raw)
				key := domain.APIKey{
					ID:      uuid.New().String(),
					ActorID: actor,
					Name:    name,
					KeyHash: repo.HashAPIKey(secret),
				}
				if err := e.Repo.InsertAPIKey(ctx, key); err != nil {
					return err
				}
				// The plain key is shown once and never stored.
				return printJSONOrTable(map[string]string{"id": key.ID, "actorId": actor, "key": secret})
			})
		},
	}
	cmd.Flags().StringVar(&actor, "actor", "", "actor id (defaults to --actor-id)")
	cmd.Flags().StringVar(&name, "name", "", "key label")
	return cmd
}

func apikeyListCmd() *cobra.Command {
	var actor string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List API keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.Repo.ListAPIKeys(ctx, actor)
				if err != nil {
					return err
				}
				return printJSONOrTable(items)
			})
		},
	}
	cmd.Flags().StringVar(&actor, "actor", "", "filter by actor id")
	return cmd
}

func apikeyRevokeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "revoke <id>",
		Short: "Revoke an API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				return e.Repo.DeleteAPIKey(ctx, args[0])
			})
		},
	}
	return cmd
}

func logCmd() *cobra.Command {
	log := &cobra.Command{
		Use:   "log",
		Short: "Event log",
		Long:  "The diary of everything that happened: objective changes, comments, notifications.",
	}
	log.AddCommand(logTailCmd())
	return log
}

func logTailCmd() *cobra.Command {
	var n int
	var evtType, entityKind, entityID string
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Tail events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				events, err := e.Repo.LatestEvents(ctx, n, evtType, entityKind, entityID)
				if err != nil {
					return err
				}
				return printJSONOrTable(events)
			})
		},
	}
	cmd.Flags().IntVar(&n, "n", 20, "number of events")
	cmd.Flags().StringVar(&evtType, "type", "", "event type filter")
	cmd.Flags().StringVar(&entityKind, "entity-kind", "", "entity kind")
	cmd.Flags().StringVar(&entityID, "entity-id", "", "entity id")
	return cmd
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			a, err := app.Open(cmd.Context(), workspace)
			if err != nil {
				return err
			}
			defer a.Close()
			authCfg := server.AuthConfig{JWTSecret: os.Getenv("NORTHSTAR_JWT_SECRET")}
			if a.Config != nil {
				authCfg.AllowLegacyActorHeader = a.Config.Auth.AllowLegacyActorHeader
			}
			if authCfg.JWTSecret == "" && !authCfg.AllowLegacyActorHeader {
				return fmt.Errorf("NORTHSTAR_JWT_SECRET is required for bearer auth")
			}
			handler, err := server.New(server.Config{Engine: a.Engine, BasePath: basePath, Auth: authCfg})
			if err != nil {
				return err
			}
			srv := &http.Server{Addr: addr, Handler: handler}
			go func() {
				<-cmd.Context().Done()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(ctx)
			}()
			fmt.Printf("Serving Northstar API on http://%s%s (OpenAPI at %s/openapi.json, Swagger UI at /docs)\n", addr, basePath, basePath)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().StringVar(&basePath, "base-path", "/v1", "API base path")
	return cmd
}

// --- helpers ---

func withEngine(ctx context.Context, fn func(context.Context, engine.Engine) error) error {
	a, err := app.Open(ctx, viper.GetString("workspace"))
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a.Engine)
}

func printJSONOrTable(v any) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
