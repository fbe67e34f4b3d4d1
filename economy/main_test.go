package economy_test

import (
	"context"
	"log/slog"
	"os"
	"testing"

	apitesting "github.com/hallowtide/atelier/apitesting"
)

var testDB *apitesting.DB

func TestMain(m *testing.M) {
	ctx := context.Background()
	log := slog.Default()

	var err error
	testDB, err = apitesting.NewDB(ctx, log, nil)
	if err != nil {
		slog.Error("failed to start PostgreSQL container", "error", err)
		os.Exit(1)
	}

	if err := apitesting.MigrateDB(testDB); err != nil {
		slog.Error("failed to migrate test database", "error", err)
		testDB.Close()
		os.Exit(1)
	}

	code := m.Run()

	testDB.Close()
	os.Exit(code)
}
