package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/cuemby/netemu/pkg/storage"
)

var (
	dataDir    = flag.String("data-dir", "/var/lib/netemu", "Directory holding netemu.db")
	redisURL   = flag.String("redis-url", "redis://localhost:6379/0", "Target Redis metastore")
	dryRun     = flag.Bool("dry-run", false, "Show what would be copied without making changes")
	backupPath = flag.String("backup", "", "Path to backup the database before migration (default: <data-dir>/netemu.db.backup)")
)

func main() {
	flag.Parse()

	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("netemu metastore migration - bolt → redis")
	log.Println("=========================================")

	dbPath := filepath.Join(*dataDir, "netemu.db")
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		log.Fatalf("Database not found at %s", dbPath)
	}

	log.Printf("Database: %s", dbPath)
	log.Printf("Target: %s", *redisURL)
	log.Printf("Dry run: %v", *dryRun)

	if !*dryRun {
		backupFile := *backupPath
		if backupFile == "" {
			backupFile = dbPath + ".backup"
		}
		log.Printf("Creating backup: %s", backupFile)
		if err := copyFile(dbPath, backupFile); err != nil {
			log.Fatalf("Failed to create backup: %v", err)
		}
		log.Println("✓ Backup created successfully")
	}

	src, err := storage.NewBoltStore(*dataDir)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer src.Close()

	var dst storage.Store
	if !*dryRun {
		rs, err := storage.NewRedisStore(storage.RedisOptions{URL: *redisURL})
		if err != nil {
			log.Fatalf("Failed to connect to redis: %v", err)
		}
		defer rs.Close()
		dst = rs
	}

	n, err := migrate(src, dst)
	if err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	if *dryRun {
		log.Printf("\nDry run completed. %d executions would be copied.", n)
		log.Println("Run without --dry-run to perform the migration.")
	} else {
		log.Printf("\n✓ Copied %d executions", n)
		log.Println("The bolt database is left untouched; point managers at redis with --metastore redis.")
	}
}

// migrate copies executions and the cluster config from src into dst.
// A nil dst only counts what would be copied.
func migrate(src, dst storage.Store) (int, error) {
	execs, err := src.ListExecutions()
	if err != nil {
		return 0, fmt.Errorf("failed to list executions: %w", err)
	}
	log.Printf("Found %d executions", len(execs))

	cluster, err := src.GetClusterConfig()
	if err != nil {
		log.Printf("⚠ No cluster config to copy: %v", err)
		cluster = nil
	}

	if dst == nil {
		for _, e := range execs {
			log.Printf("[DRY RUN] would copy %s", e.ID())
		}
		return len(execs), nil
	}

	copied := 0
	for _, e := range execs {
		if err := dst.SaveExecution(e); err != nil {
			return copied, fmt.Errorf("failed to copy %s: %w", e.ID(), err)
		}
		copied++
		if copied%10 == 0 {
			log.Printf("  Copied %d/%d...", copied, len(execs))
		}
	}
	if cluster != nil {
		if err := dst.SaveClusterConfig(cluster); err != nil {
			return copied, fmt.Errorf("failed to copy cluster config: %w", err)
		}
		log.Printf("✓ Copied cluster config with %d nodes", len(cluster.Nodes))
	}
	return copied, nil
}

func copyFile(src, dst string) error {
	input, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, input, 0600)
}
