package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/PearlCalc/extension/internal/api"
	"github.com/PearlCalc/extension/internal/database"
	"github.com/PearlCalc/extension/internal/dispatcher"
	"github.com/PearlCalc/extension/internal/storage/memory"
)

const usage = `usage: pearl_calculator <command> [args]

  solve <request.json>      search charge counts for a cannon
  trace <request.json>      trace one charge combination
  rawtrace <request.json>   trace a pearl pushed by free charge groups
  bits <request.json>       derive switch states for charge counts
  status                    print calculator status
  export <file.json[.gz]>   summarize a memory backend export
  upload <file.json[.gz]>   send a memory backend export to the results server
  migrate <dir>             copy SQLite backups in dir into Postgres`

// main runs only when the library is built as an executable.
func main() {
	if err := runCLI(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runCLI(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Println(usage)
		return nil
	}

	switch cmd := strings.ToLower(args[0]); cmd {
	case "solve", "trace", "rawtrace", "bits":
		if len(args) < 2 {
			return fmt.Errorf("%s: request file required", cmd)
		}
		command := map[string]string{
			"solve":    ":SOLVE:",
			"trace":    ":TRACE:",
			"rawtrace": ":TRACE:RAW:",
			"bits":     ":BITS:",
		}[cmd]
		return dispatchFile(ctx, command, args[1])

	case "status":
		return printDispatch(ctx, ":STATUS:", nil)

	case "export":
		if len(args) < 2 {
			return fmt.Errorf("export: file required")
		}
		return summarizeExport(args[1])

	case "upload":
		if len(args) < 2 {
			return fmt.Errorf("upload: file required")
		}
		return uploadFile(ctx, args[1])

	case "migrate":
		dir := AddonFolder
		if len(args) > 1 {
			dir = args[1]
		}
		return migrateBackups(dir)

	default:
		return fmt.Errorf("unknown command %q\n\n%s", cmd, usage)
	}
}

// dispatchFile sends a JSON request file through the dispatcher the way the
// game would, quoted as one SQF string argument.
func dispatchFile(ctx context.Context, command, path string) error {
	body, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read request: %w", err)
	}
	arg := `"` + strings.ReplaceAll(strings.TrimSpace(string(body)), `"`, `""`) + `"`
	return printDispatch(ctx, command, []string{arg})
}

func printDispatch(ctx context.Context, command string, args []string) error {
	result, err := eventDispatcher.Dispatch(ctx, dispatcher.Event{Command: command, Args: args})
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

func summarizeExport(path string) error {
	export, err := memory.ReadExport(path)
	if err != nil {
		return err
	}
	fmt.Printf("version %s, %s to %s\n", export.ExtensionVersion,
		export.StartedAt.Format("2006-01-02 15:04:05"), export.EndedAt.Format("15:04:05"))
	fmt.Printf("%-13s %d\n", "calculations", len(export.Calculations))
	fmt.Printf("%-13s %d\n", "traces", len(export.Traces))
	for _, c := range export.Calculations {
		fmt.Printf("  #%d %s candidates=%d results=%d\n", c.ID, c.Version, c.Candidates, len(c.Results))
	}
	return nil
}

func uploadFile(ctx context.Context, path string) error {
	export, err := memory.ReadExport(path)
	if err != nil {
		return err
	}
	client := api.New(viper.GetString("api.serverUrl"), viper.GetString("api.apiKey"))
	return client.UploadExport(ctx, path, api.ExportMetadata{
		ExtensionVersion: export.ExtensionVersion,
		Calculations:     len(export.Calculations),
		Traces:           len(export.Traces),
	})
}

func migrateBackups(dir string) error {
	db, err := database.GetPostgresDB()
	if err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if err := database.Setup(db, CurrentExtensionVersion); err != nil {
		return err
	}
	migrated, err := database.MigrateBackupFiles(dir, db)
	Logger.Info("Migrated backups", "count", len(migrated), "paths", migrated)
	for _, p := range migrated {
		fmt.Println("migrated", p)
	}
	return err
}
