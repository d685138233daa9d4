// Command migrate runs schema operations for the backend.
package main

import (
	"flag"
	"fmt"
	"log"
	"strings"

	"circles/internal/config"
	"circles/internal/database"
	"circles/internal/seed"

	"gorm.io/gorm"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func usage() error {
	return fmt.Errorf("usage: go run ./cmd/migrate/main.go <up|status|reset>")
}

func run() error {
	flag.Parse()
	if flag.NArg() < 1 {
		return usage()
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := gorm.Open(database.Dialector(cfg), &gorm.Config{})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(flag.Arg(0))) {
	case "up":
		if err := database.Migrate(db); err != nil {
			return err
		}
		log.Println("automigrations applied")
	case "status":
		pending := 0
		for _, m := range database.PersistentModels() {
			stmt := &gorm.Statement{DB: db}
			if err := stmt.Parse(m); err != nil {
				return err
			}
			state := "present"
			if !db.Migrator().HasTable(m) {
				state = "missing"
				pending++
			}
			log.Printf("%-24s %s", stmt.Schema.Table, state)
		}
		log.Printf("driver=%s env=%s missing=%d", cfg.DBDriver, cfg.Env, pending)
	case "reset":
		if cfg.IsProduction() {
			return fmt.Errorf("reset refused in %s", cfg.Env)
		}
		if err := database.Migrate(db); err != nil {
			return err
		}
		if err := seed.ClearAll(db); err != nil {
			return fmt.Errorf("reset failed: %w", err)
		}
		log.Println("all tables emptied")
	default:
		return usage()
	}

	return nil
}
