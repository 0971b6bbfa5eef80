// Command fieldcrypt encrypts, decrypts and hashes protected field values and
// migrates legacy plaintext columns to encrypted envelopes.
//
// Usage:
//
//	fieldcrypt [-config path] encrypt  < plaintext
//	fieldcrypt [-config path] decrypt  < stored value
//	fieldcrypt hash "Meeting Notes"
//	fieldcrypt [-config path] migrate -driver sqlite -dsn notes.db -table notes -key id -column body
//
// The secret is read from the environment variable named by the config
// (CONTENT_ENCRYPTION_KEY by default).
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ai8future/fieldcrypt"
	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// Version is set at build time
var Version = "dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	os.Exit(run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	global := flag.NewFlagSet("fieldcrypt", flag.ContinueOnError)
	global.SetOutput(stderr)
	configPath := global.String("config", "fieldcrypt.yaml", "Path to configuration file")
	global.Usage = func() {
		fmt.Fprintln(stderr, "usage: fieldcrypt [-config path] <encrypt|decrypt|hash|migrate> [flags]")
		global.PrintDefaults()
	}
	if err := global.Parse(args); err != nil {
		return 2
	}
	if global.NArg() == 0 {
		global.Usage()
		return 2
	}

	cfg, err := fieldcrypt.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	logger, err := cfg.Log.Logger(stderr)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	cmd, rest := global.Arg(0), global.Args()[1:]
	switch cmd {
	case "hash":
		return runHash(rest, stdin, stdout, stderr)
	case "encrypt", "decrypt", "migrate":
	default:
		fmt.Fprintf(stderr, "unknown command %q\n", cmd)
		global.Usage()
		return 2
	}

	cipher, err := fieldcrypt.NewFromConfig(cfg, fieldcrypt.WithLogger(logger))
	if err != nil {
		logger.Error().Err(err).Str("secret_env", cfg.SecretEnv).Msg("cannot initialise cipher")
		return 1
	}
	defer cipher.Close()

	switch cmd {
	case "encrypt":
		return runEncrypt(cipher, stdin, stdout, stderr)
	case "decrypt":
		return runDecrypt(cipher, stdin, stdout, stderr)
	default:
		return runMigrate(ctx, cipher, logger, rest, stderr)
	}
}

func runEncrypt(cipher *fieldcrypt.Cipher, stdin io.Reader, stdout, stderr io.Writer) int {
	input, err := io.ReadAll(stdin)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	fmt.Fprintln(stdout, cipher.PrepareForStorage(strings.TrimSuffix(string(input), "\n")))
	return 0
}

func runDecrypt(cipher *fieldcrypt.Cipher, stdin io.Reader, stdout, stderr io.Writer) int {
	input, err := io.ReadAll(stdin)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	text, err := cipher.DecryptContent(strings.TrimSuffix(string(input), "\n"))
	fmt.Fprintln(stdout, text)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	return 0
}

func runHash(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var content string
	if len(args) > 0 {
		content = strings.Join(args, " ")
	} else {
		input, err := io.ReadAll(stdin)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		content = string(input)
	}
	fmt.Fprintln(stdout, fieldcrypt.HashContent(content))
	return 0
}

func runMigrate(ctx context.Context, cipher *fieldcrypt.Cipher, logger zerolog.Logger, args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	driver := fs.String("driver", "sqlite", "Database driver (sqlite or mysql)")
	dsn := fs.String("dsn", "", "Data source name")
	table := fs.String("table", "", "Table to migrate")
	key := fs.String("key", "id", "Primary key column")
	column := fs.String("column", "", "Column to encrypt")
	batch := fs.Int("batch", 500, "Rows per batch")
	workers := fs.Int("workers", 0, "Concurrent encryptions (0 = GOMAXPROCS)")
	dryRun := fs.Bool("dry-run", false, "Report without writing")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *dsn == "" || *table == "" || *column == "" {
		fmt.Fprintln(stderr, "migrate: -dsn, -table and -column are required")
		return 2
	}
	if *driver != "sqlite" && *driver != "mysql" {
		fmt.Fprintf(stderr, "migrate: unsupported driver %q\n", *driver)
		return 2
	}

	db, err := sql.Open(*driver, *dsn)
	if err != nil {
		logger.Error().Err(err).Msg("cannot open database")
		return 1
	}
	defer db.Close()

	logger.Info().
		Str("version", Version).
		Str("driver", *driver).
		Str("table", *table).
		Str("column", *column).
		Msg("starting column migration")

	m := &fieldcrypt.Migrator{
		Cipher:    cipher,
		DB:        db,
		Table:     *table,
		KeyColumn: *key,
		Column:    *column,
		BatchSize: *batch,
		Workers:   *workers,
		DryRun:    *dryRun,
	}
	stats, err := m.Run(ctx)
	logger.Info().
		Int("scanned", stats.Scanned).
		Int("migrated", stats.Migrated).
		Int("skipped", stats.Skipped).
		Int("failed", stats.Failed).
		Msg("column migration finished")
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Warn().Msg("migration interrupted")
		} else {
			logger.Error().Err(err).Msg("migration failed")
		}
		return 1
	}
	if stats.Failed > 0 {
		return 1
	}
	return 0
}
