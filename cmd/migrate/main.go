// Command migrate applies the embedded SQL migrations.
//
//	migrate up
//	migrate down
//	migrate goto <version>
//	migrate force <version>
//	migrate version
package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/prohmpiriya/gym-booking/migrations"
	"github.com/prohmpiriya/gym-booking/pkg/config"
	"github.com/prohmpiriya/gym-booking/pkg/database"
)

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.ValidateDatabase(); err != nil {
		log.Fatalf("Invalid database config: %v", err)
	}

	m, err := database.NewMigrator(migrations.FS, migrations.Dir, cfg.Database.URL())
	if err != nil {
		log.Fatalf("Failed to open migrations: %v", err)
	}
	defer m.Close()

	var changed bool
	switch cmd := os.Args[1]; cmd {
	case "up":
		changed, err = m.Up()
	case "down":
		changed, err = m.Down()
	case "goto":
		changed, err = m.Goto(versionArg())
	case "force":
		err = m.Force(int(versionArg()))
		changed = err == nil
	case "version":
		printVersion(m)
		return
	default:
		usage()
	}
	if err != nil {
		log.Fatalf("Migration %s failed: %v", os.Args[1], err)
	}

	if !changed {
		log.Println("No change")
	}
	printVersion(m)
}

func versionArg() uint {
	if len(os.Args) < 3 {
		usage()
	}
	v, err := strconv.ParseUint(os.Args[2], 10, 32)
	if err != nil {
		log.Fatalf("Invalid version %q: %v", os.Args[2], err)
	}
	return uint(v)
}

func printVersion(m *database.Migrator) {
	version, dirty, ok, err := m.Version()
	switch {
	case err != nil:
		log.Fatalf("Failed to read version: %v", err)
	case !ok:
		log.Println("No migrations applied")
	default:
		log.Printf("Version %d (dirty=%t)", version, dirty)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: migrate up|down|version|goto <version>|force <version>")
	os.Exit(2)
}
