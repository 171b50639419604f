package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/parcel-recon/internal/config"
	"github.com/parcel-recon/internal/db"
	"github.com/parcel-recon/internal/engine"
	"github.com/parcel-recon/internal/validation"
	"github.com/parcel-recon/internal/web"
)

func main() {
	if err := config.LoadEnv(); err != nil {
		log.Printf("Warning: failed to load .env: %v", err)
	}

	rootCmd := &cobra.Command{
		Use:   "parcelrecon",
		Short: "County/MLS sale reconciliation pipeline",
		Long:  `Reconciles the county sale extract with brokerage MLS exports into one enriched dataset`,
	}

	rootCmd.AddCommand(createBuildCmd())
	rootCmd.AddCommand(createValidateCmd())
	rootCmd.AddCommand(createPublishCmd())
	rootCmd.AddCommand(createRunCmd())
	rootCmd.AddCommand(createServeCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// buildFlags are shared by the build and run commands.
type buildFlags struct {
	county     string
	mlsDir     string
	coords     string
	output     string
	reportPath string
	tolerances string
	debug      bool
}

func (f *buildFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.county, "county", config.GetEnv("COUNTY_CSV", "data/county.csv"), "County sale extract CSV")
	cmd.Flags().StringVar(&f.mlsDir, "mls-dir", config.GetEnv("MLS_DIR", "data/mls"), "Directory of brokerage export files")
	cmd.Flags().StringVar(&f.coords, "coords", config.GetEnv("COORDS_CSV", ""), "Optional GIS coordinate side table CSV")
	cmd.Flags().StringVar(&f.output, "output", config.GetEnv("OUTPUT_CSV", "out/enriched.csv"), "Enriched output CSV path")
	cmd.Flags().StringVar(&f.reportPath, "report", config.GetEnv("REPORT_JSON", "out/report.json"), "JSON report path")
	cmd.Flags().StringVar(&f.tolerances, "tolerances", config.GetEnv("TOLERANCES_TOML", ""), "Optional TOML file overriding matching tolerances")
	cmd.Flags().BoolVar(&f.debug, "debug", config.GetEnvBool("DEBUG", false), "Enable debug output")
}

func (f *buildFlags) options() (engine.Options, error) {
	tol, err := config.LoadTolerances(f.tolerances)
	if err != nil {
		return engine.Options{}, err
	}
	return engine.Options{
		CountyPath: f.county,
		RealtorDir: f.mlsDir,
		CoordsPath: f.coords,
		OutputPath: f.output,
		ReportPath: f.reportPath,
		Tolerances: tol,
		Debug:      f.debug,
	}, nil
}

// createBuildCmd creates the command that runs the reconciliation pipeline
func createBuildCmd() *cobra.Command {
	flags := &buildFlags{}
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the enriched dataset from the county extract and MLS exports",
		Run: func(cmd *cobra.Command, args []string) {
			opts, err := flags.options()
			if err != nil {
				log.Fatalf("Configuration error: %v", err)
			}
			if _, err := engine.NewPipeline(opts).Run(); err != nil {
				log.Fatalf("Build failed: %v", err)
			}
		},
	}
	flags.register(cmd)
	return cmd
}

// createValidateCmd creates the command that re-derives pass/fail from a run's artifacts
func createValidateCmd() *cobra.Command {
	var reportPath, outputPath string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a run's report and output CSV",
		Run: func(cmd *cobra.Command, args []string) {
			if err := runValidation(reportPath, outputPath); err != nil {
				log.Fatalf("Validation failed: %v", err)
			}
		},
	}
	cmd.Flags().StringVar(&reportPath, "report", config.GetEnv("REPORT_JSON", "out/report.json"), "JSON report path")
	cmd.Flags().StringVar(&outputPath, "output", config.GetEnv("OUTPUT_CSV", "out/enriched.csv"), "Enriched output CSV path")
	return cmd
}

// createPublishCmd creates the command that loads the output into Postgres
func createPublishCmd() *cobra.Command {
	var outputPath, table string
	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Publish the enriched output CSV to Postgres",
		Run: func(cmd *cobra.Command, args []string) {
			if err := runPublish(outputPath, table); err != nil {
				log.Fatalf("Publish failed: %v", err)
			}
		},
	}
	cmd.Flags().StringVar(&outputPath, "output", config.GetEnv("OUTPUT_CSV", "out/enriched.csv"), "Enriched output CSV path")
	cmd.Flags().StringVar(&table, "table", config.GetEnv("PUBLISH_TABLE", "enriched_sales"), "Target table name")
	return cmd
}

// createRunCmd creates the command that sequences build, validate and publish
func createRunCmd() *cobra.Command {
	flags := &buildFlags{}
	var publish bool
	var table string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full sequence: build, validate, optionally publish",
		Run: func(cmd *cobra.Command, args []string) {
			opts, err := flags.options()
			if err != nil {
				log.Fatalf("Configuration error: %v", err)
			}
			if _, err := engine.NewPipeline(opts).Run(); err != nil {
				log.Fatalf("Build failed: %v", err)
			}
			if err := runValidation(opts.ReportPath, opts.OutputPath); err != nil {
				log.Fatalf("Validation failed: %v", err)
			}
			if publish {
				if err := runPublish(opts.OutputPath, table); err != nil {
					log.Fatalf("Publish failed: %v", err)
				}
			}
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&publish, "publish", false, "Publish to Postgres after validation")
	cmd.Flags().StringVar(&table, "table", config.GetEnv("PUBLISH_TABLE", "enriched_sales"), "Target table name")
	return cmd
}

// createServeCmd creates the command that serves the dashboard and artifacts
func createServeCmd() *cobra.Command {
	var host, outputDir, staticDir string
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard and output files over HTTP",
		Run: func(cmd *cobra.Command, args []string) {
			server := web.NewServer(host, port, outputDir, staticDir)
			if err := server.Start(); err != nil {
				log.Fatalf("Server error: %v", err)
			}
		},
	}
	cmd.Flags().StringVar(&host, "host", config.GetEnv("SERVE_HOST", "127.0.0.1"), "Bind host")
	cmd.Flags().IntVar(&port, "port", config.GetEnvInt("SERVE_PORT", 8080), "Bind port")
	cmd.Flags().StringVar(&outputDir, "output-dir", config.GetEnv("OUTPUT_DIR", "out"), "Directory of run artifacts")
	cmd.Flags().StringVar(&staticDir, "static-dir", config.GetEnv("STATIC_DIR", "dashboard"), "Dashboard asset directory")
	return cmd
}

func runValidation(reportPath, outputPath string) error {
	res, err := validation.Validate(reportPath, outputPath)
	if err != nil {
		return err
	}

	for _, w := range res.Warnings {
		fmt.Printf("⚠ %s\n", w)
	}
	if !res.Passed {
		for _, e := range res.Errors {
			fmt.Printf("✗ %s\n", e)
		}
		return fmt.Errorf("validation found %d errors", len(res.Errors))
	}
	fmt.Printf("✓ Validation passed (%d output rows)\n", res.OutputRows)
	return nil
}

func runPublish(outputPath, table string) error {
	conn, err := db.NewConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	loaded, err := db.NewPublisher(conn).Publish(outputPath, table)
	if err != nil {
		return err
	}
	fmt.Printf("✓ Published %d rows to %s\n", loaded, table)
	return nil
}
