package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"planforge/internal/config"
	"planforge/internal/db"
	"planforge/internal/domain"
	"planforge/internal/engine"
	"planforge/internal/environment"
	"planforge/internal/events"
	"planforge/internal/logger"
	"planforge/internal/migrate"
	"planforge/internal/server"
	planforgesdk "planforge/sdk/go"
)

var rootCmd = &cobra.Command{
	Use:   "pf",
	Short: "Planforge CLI",
	Long: `Planforge analyzes plot designs through a deterministic specialist pipeline.
Submit a plot, poll the job, and fetch the ranked decision list plus the
scientific validation report once the run completes.`,
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("PF")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("server", "http://127.0.0.1:8080/v1", "server base URL for client commands")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("server", rootCmd.PersistentFlags().Lookup("server"))
}

func registerCommands() {
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(analyzeCmd())
	rootCmd.AddCommand(jobCmd())
	rootCmd.AddCommand(envCmd())
	rootCmd.AddCommand(logCmd())
}

func client() *planforgesdk.Client {
	return planforgesdk.New(viper.GetString("server"))
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			cfg, err := config.Load(workspace)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			if basePath != "" {
				cfg.Server.BasePath = basePath
			}
			log := logger.New(cfg.Log.Level)

			conn, err := db.Open(db.Config{Workspace: workspace})
			if err != nil {
				return err
			}
			defer conn.Close()
			if err := migrate.Migrate(conn); err != nil {
				return err
			}

			eng := engine.New(engine.Options{
				Workers:       cfg.Engine.Workers,
				QueueCapacity: cfg.Engine.QueueCapacity,
				Events:        events.Writer{DB: conn},
				Logger:        log,
			})
			defer eng.Close()

			handler, err := server.New(server.Config{Engine: eng, BasePath: cfg.Server.BasePath, Logger: log})
			if err != nil {
				return err
			}
			srv := &http.Server{Addr: cfg.Server.Addr, Handler: handler}
			go func() {
				<-cmd.Context().Done()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(ctx)
			}()
			log.Info("serving Planforge API", "addr", cfg.Server.Addr, "base_path", cfg.Server.BasePath)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	cmd.Flags().StringVar(&basePath, "base-path", "", "API base path (overrides config)")
	return cmd
}

func configCmd() *cobra.Command {
	cfg := &cobra.Command{Use: "config", Short: "Manage configuration"}
	cfg.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write default planforge.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.Path(viper.GetString("workspace"))
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}
			if err := os.WriteFile(path, []byte(config.GenerateDefault()), 0o644); err != nil {
				return err
			}
			fmt.Println("wrote", path)
			return nil
		},
	})
	cfg.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := config.Load(viper.GetString("workspace"))
			if err != nil {
				return err
			}
			return printJSON(c)
		},
	})
	return cfg
}

func analyzeCmd() *cobra.Command {
	var file string
	var wait bool
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Submit a plot analysis request",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(file)
			if err != nil {
				return err
			}
			var req domain.DesignRequest
			if err := json.Unmarshal(data, &req); err != nil {
				return fmt.Errorf("parse request file: %w", err)
			}
			c := client()
			accepted, err := c.AnalyzePlot(cmd.Context(), req)
			if err != nil {
				return err
			}
			if !wait {
				return printJSON(accepted)
			}
			st, err := c.WaitForCompletion(cmd.Context(), accepted.JobID, 500*time.Millisecond)
			if err != nil {
				return err
			}
			if st.Status == "failed" {
				return fmt.Errorf("job %s failed: %s", st.JobID, st.Error)
			}
			result, err := c.Result(cmd.Context(), st.JobID)
			if err != nil {
				return err
			}
			return printResult(result)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON request file")
	cmd.Flags().BoolVar(&wait, "wait", false, "poll until the job completes and print the result")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func jobCmd() *cobra.Command {
	job := &cobra.Command{Use: "job", Short: "Inspect and regenerate jobs"}

	job.AddCommand(&cobra.Command{
		Use:   "status <job-id>",
		Short: "Job status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := client().Status(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(st)
		},
	})

	job.AddCommand(&cobra.Command{
		Use:   "result <job-id>",
		Short: "Job result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := client().Result(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printResult(result)
		},
	})

	job.AddCommand(&cobra.Command{
		Use:   "report <job-id>",
		Short: "Validation report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := client().Report(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(report)
		},
	})

	var file string
	regen := &cobra.Command{
		Use:   "regenerate <job-id>",
		Short: "Regenerate a job with new requirements",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(file)
			if err != nil {
				return err
			}
			var reqs domain.Requirements
			if err := json.Unmarshal(data, &reqs); err != nil {
				return fmt.Errorf("parse requirements file: %w", err)
			}
			accepted, err := client().Regenerate(cmd.Context(), args[0], reqs)
			if err != nil {
				return err
			}
			return printJSON(accepted)
		},
	}
	regen.Flags().StringVarP(&file, "file", "f", "", "JSON requirements file")
	_ = regen.MarkFlagRequired("file")
	job.AddCommand(regen)

	return job
}

func envCmd() *cobra.Command {
	env := &cobra.Command{Use: "env", Short: "Environmental derivation"}
	var lat, lon float64
	sunPath := &cobra.Command{
		Use:   "sun-path",
		Short: "Derive solar profile for coordinates (local, no server)",
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := environment.New().Profile(lat, lon)
			if err != nil {
				return err
			}
			return printJSON(map[string]any{
				"solar":       profile.Solar,
				"geolocation": profile.Geolocation,
			})
		},
	}
	sunPath.Flags().Float64Var(&lat, "lat", 0, "latitude")
	sunPath.Flags().Float64Var(&lon, "lon", 0, "longitude")
	_ = sunPath.MarkFlagRequired("lat")
	_ = sunPath.MarkFlagRequired("lon")
	env.AddCommand(sunPath)
	return env
}

func logCmd() *cobra.Command {
	log := &cobra.Command{Use: "log", Short: "Job event log"}
	var n int
	tail := &cobra.Command{
		Use:   "tail",
		Short: "Tail lifecycle events",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			conn, err := db.Open(db.Config{Workspace: workspace})
			if err != nil {
				return err
			}
			defer conn.Close()
			if err := migrate.Migrate(conn); err != nil {
				return err
			}
			items, err := events.Writer{DB: conn}.Tail(cmd.Context(), n)
			if err != nil {
				return err
			}
			if viper.GetBool("json") {
				return printJSON(items)
			}
			tw := table.NewWriter()
			tw.SetOutputMirror(os.Stdout)
			tw.AppendHeader(table.Row{"ID", "TS", "Type", "Job", "Payload"})
			for _, e := range items {
				tw.AppendRow(table.Row{e.ID, e.TS, e.Type, e.JobID, e.Payload})
			}
			tw.Render()
			return nil
		},
	}
	tail.Flags().IntVar(&n, "n", 20, "number of events")
	log.AddCommand(tail)
	return log
}

func printResult(result planforgesdk.DesignResult) error {
	if viper.GetBool("json") {
		return printJSON(result)
	}
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"Agent", "Decision", "Score"})
	for _, d := range result.DesignDecisions {
		tw.AppendRow(table.Row{d.Agent, d.Decision, d.Score})
	}
	tw.Render()
	fmt.Printf("design %s  compliant=%v  energy=%s\n",
		result.DesignID, result.Validation.Compliant, result.Validation.EnergyEfficiency)
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
