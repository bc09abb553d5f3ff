package main

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/schoolhub/school-directory-service/internal/tools/cleanup"
	"github.com/schoolhub/school-directory-service/internal/tools/loadgen"
	"github.com/schoolhub/school-directory-service/internal/tools/migrate"
	"github.com/schoolhub/school-directory-service/internal/tools/obscheck"
	"github.com/schoolhub/school-directory-service/internal/tools/seed"
)

func main() {
	root := &cobra.Command{
		Use:   "schoolctl",
		Short: "Operational tooling for the school directory service",
	}
	root.AddCommand(
		migrate.NewRootCommand(),
		seed.NewRootCommand(),
		cleanup.NewRootCommand(),
		loadgen.NewRootCommand(),
		obscheck.NewRootCommand(),
	)
	if err := root.Execute(); err != nil {
		log.Fatal(err)
	}
}
