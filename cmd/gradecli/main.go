package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/programme-lv/grader/conf"
	"github.com/programme-lv/grader/grading"
	"github.com/programme-lv/grader/logger"
	"github.com/programme-lv/grader/report"
	"github.com/programme-lv/grader/s3bucket"
	"github.com/programme-lv/grader/submfs"
)

const usage = `usage: gradecli [-config grader.toml] <command> [flags]

commands:
  report  -domain pdf                  print the course report
  grade   -assignment NAME             enter marks interactively
  export  -domain pdf -out report.xlsx export the report workbook
`

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Error loading .env file: %v\n", err)
		os.Exit(1)
	}

	cfgPath := flag.String("config", envOr("GRADER_CONFIG", "grader.toml"), "path to the TOML config file")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()
	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	// the TUI owns the terminal, so logs go to a file or nowhere
	log, err := logger.New(logOutput(), envOr("GRADER_LOG_LEVEL", "warn"), os.Getenv("GRADER_LOG_FORMAT"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	ctx := logger.WithLogger(context.Background(), log)

	cfg, err := conf.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.EnsureDirs(); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating storage dirs: %v\n", err)
		os.Exit(1)
	}
	catalog, err := submfs.Scan(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error scanning submissions: %v\n", err)
		os.Exit(1)
	}
	store := grading.NewStore(cfg)

	cmd, args := flag.Arg(0), flag.Args()[1:]
	switch cmd {
	case "report":
		err = runReport(ctx, cfg, catalog, store, args)
	case "grade":
		err = runGrade(ctx, catalog, store, args)
	case "export":
		err = runExport(ctx, cfg, catalog, store, args)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runReport(ctx context.Context, cfg conf.Config, catalog *submfs.Catalog, store *grading.Store, args []string) error {
	fset := flag.NewFlagSet("report", flag.ExitOnError)
	domain := fset.String("domain", "pdf", "roster domain")
	if err := fset.Parse(args); err != nil {
		return err
	}

	rep, err := report.NewEngine(cfg, catalog, store).BuildForDomain(ctx, *domain)
	if err != nil {
		return err
	}
	fmt.Println(renderReport(rep))
	return nil
}

func runGrade(ctx context.Context, catalog *submfs.Catalog, store *grading.Store, args []string) error {
	fset := flag.NewFlagSet("grade", flag.ExitOnError)
	assignment := fset.String("assignment", "", "assignment name")
	if err := fset.Parse(args); err != nil {
		return err
	}
	if *assignment == "" {
		return fmt.Errorf("please provide an assignment using the -assignment flag")
	}

	m, err := newGradeModel(ctx, catalog, store, *assignment)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m).Run()
	return err
}

func runExport(ctx context.Context, cfg conf.Config, catalog *submfs.Catalog, store *grading.Store, args []string) error {
	fset := flag.NewFlagSet("export", flag.ExitOnError)
	domain := fset.String("domain", "pdf", "roster domain")
	out := fset.String("out", "report.xlsx", "local output file")
	bucketName := fset.String("s3-bucket", cfg.Export.S3Bucket, "upload to this S3 bucket instead of writing a file")
	region := fset.String("s3-region", cfg.Export.S3Region, "region of the S3 bucket")
	if err := fset.Parse(args); err != nil {
		return err
	}

	rep, err := report.NewEngine(cfg, catalog, store).BuildForDomain(ctx, *domain)
	if err != nil {
		return err
	}

	var uploader reportUploader
	if *bucketName != "" {
		bucket, err := s3bucket.NewS3Bucket(ctx, *region, *bucketName)
		if err != nil {
			return err
		}
		uploader = bucket
	}
	location, err := exportReport(ctx, rep, *out, cfg.Export.S3Prefix, uploader)
	if err != nil {
		return err
	}
	fmt.Printf("report exported to %s\n", location)
	return nil
}

func logOutput() *os.File {
	if p := os.Getenv("GRADER_LOG_FILE"); p != "" {
		if f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err == nil {
			return f
		}
	}
	return os.Stderr
}

func envOr(key string, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
