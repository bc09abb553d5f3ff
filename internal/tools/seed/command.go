package seed

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/schoolhub/school-directory-service/internal/config"
	"github.com/schoolhub/school-directory-service/internal/database"
	"github.com/schoolhub/school-directory-service/internal/domain"
	"github.com/schoolhub/school-directory-service/internal/tools/common"
	"github.com/schoolhub/school-directory-service/internal/tools/ui"
)

type options struct {
	envFile string
	ci      bool
}

func NewRootCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{Use: "seed", Short: "Directory seed tooling"}
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "path to env file")
	cmd.PersistentFlags().BoolVar(&opts.ci, "ci", false, "non-interactive machine-readable output")
	cmd.AddCommand(newApplyCommand(opts), newDryRunCommand(opts), newVerifyCommand(opts))
	return cmd
}

func newApplyCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "apply",
		Short: "Insert the sample directory entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			details, err := run(opts, "apply", func(ctx context.Context) ([]string, error) {
				db, err := loadDB(opts.envFile)
				if err != nil {
					return nil, err
				}
				defer closeDB(db)

				report, err := database.Seed(db)
				if err != nil {
					return nil, err
				}
				if report.Noop {
					return []string{"sample schools already present, nothing inserted"}, nil
				}
				return []string{fmt.Sprintf("inserted %d sample schools", report.CreatedSchools)}, nil
			})
			if opts.ci {
				common.PrintCIResult(err == nil, "seed apply", details, err)
			}
			if err != nil {
				os.Exit(3)
			}
			return nil
		},
	}
}

func newDryRunCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "dry-run",
		Short: "Show what seeding would do",
		RunE: func(cmd *cobra.Command, args []string) error {
			details, err := run(opts, "dry-run", func(ctx context.Context) ([]string, error) {
				db, err := loadDB(opts.envFile)
				if err != nil {
					return nil, err
				}
				defer closeDB(db)

				var existing int64
				if err := db.WithContext(ctx).Model(&domain.School{}).Count(&existing).Error; err != nil {
					return nil, err
				}
				return []string{
					"would ensure the sample schools exist, matched by name",
					fmt.Sprintf("schools currently in directory: %d", existing),
					"no mutation executed in dry-run mode",
				}, nil
			})
			if opts.ci {
				common.PrintCIResult(err == nil, "seed dry-run", details, err)
			}
			if err != nil {
				os.Exit(3)
			}
			return nil
		},
	}
}

func newVerifyCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check that the directory holds seed data",
		RunE: func(cmd *cobra.Command, args []string) error {
			details, err := run(opts, "verify", func(ctx context.Context) ([]string, error) {
				db, err := loadDB(opts.envFile)
				if err != nil {
					return nil, err
				}
				defer closeDB(db)

				var count int64
				if err := db.WithContext(ctx).Model(&domain.School{}).Count(&count).Error; err != nil {
					return nil, err
				}
				if count == 0 {
					return nil, fmt.Errorf("directory is empty, run seed apply first")
				}
				return []string{fmt.Sprintf("directory holds %d schools", count)}, nil
			})
			if opts.ci {
				common.PrintCIResult(err == nil, "seed verify", details, err)
			}
			if err != nil {
				os.Exit(3)
			}
			return nil
		},
	}
}

func run(opts *options, command string, fn func(context.Context) ([]string, error)) ([]string, error) {
	fn = common.Instrument("seed", command, fn)
	if opts.ci {
		return fn(context.Background())
	}
	return ui.Run("seed "+command, fn)
}

func loadDB(envFile string) (*gorm.DB, error) {
	if err := common.LoadEnvFile(envFile); err != nil {
		return nil, err
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return database.Open(cfg)
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
