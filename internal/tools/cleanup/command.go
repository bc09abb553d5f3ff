package cleanup

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/schoolhub/school-directory-service/internal/config"
	"github.com/schoolhub/school-directory-service/internal/database"
	"github.com/schoolhub/school-directory-service/internal/domain"
	"github.com/schoolhub/school-directory-service/internal/repository"
	"github.com/schoolhub/school-directory-service/internal/tools/common"
	"github.com/schoolhub/school-directory-service/internal/tools/ui"
)

type options struct {
	envFile string
	grace   time.Duration
	timeout time.Duration
	ci      bool
}

// NewRootCommand builds the cleanup-codes command. One-time codes are
// append-only at runtime, so expired rows accumulate until this tool, or a
// scheduled job running it, purges them.
func NewRootCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{Use: "cleanup-codes", Short: "Purge expired one-time codes"}
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "path to env file")
	cmd.PersistentFlags().DurationVar(&opts.grace, "grace", time.Hour, "keep expired codes younger than this, for audit trails")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "operation timeout")
	cmd.PersistentFlags().BoolVar(&opts.ci, "ci", false, "non-interactive machine-readable output")
	cmd.AddCommand(newPurgeCommand(opts), newStatusCommand(opts))
	return cmd
}

func newPurgeCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "purge",
		Short: "Delete codes that expired before the grace window",
		RunE: func(cmd *cobra.Command, args []string) error {
			details, err := run(opts, "purge", func(ctx context.Context) ([]string, error) {
				db, err := loadDB(opts.envFile)
				if err != nil {
					return nil, err
				}
				defer closeDB(db)

				cutoff := time.Now().Add(-opts.grace)
				deleted, err := repository.NewCodeRepository(db).DeleteExpiredBefore(ctx, cutoff)
				if err != nil {
					return nil, err
				}
				return []string{
					fmt.Sprintf("deleted %d expired codes", deleted),
					"cutoff: " + cutoff.UTC().Format(time.RFC3339),
				}, nil
			})
			if opts.ci {
				common.PrintCIResult(err == nil, "cleanup-codes purge", details, err)
			}
			if err != nil {
				os.Exit(3)
			}
			return nil
		},
	}
}

func newStatusCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Count expired codes without deleting anything",
		RunE: func(cmd *cobra.Command, args []string) error {
			details, err := run(opts, "status", func(ctx context.Context) ([]string, error) {
				db, err := loadDB(opts.envFile)
				if err != nil {
					return nil, err
				}
				defer closeDB(db)

				var expired, total int64
				if err := db.WithContext(ctx).Model(&domain.OneTimeCode{}).Count(&total).Error; err != nil {
					return nil, err
				}
				if err := db.WithContext(ctx).Model(&domain.OneTimeCode{}).
					Where("expires_at < ?", time.Now()).Count(&expired).Error; err != nil {
					return nil, err
				}
				return []string{
					fmt.Sprintf("codes total: %d", total),
					fmt.Sprintf("codes expired: %d", expired),
				}, nil
			})
			if opts.ci {
				common.PrintCIResult(err == nil, "cleanup-codes status", details, err)
			}
			if err != nil {
				os.Exit(3)
			}
			return nil
		},
	}
}

func run(opts *options, command string, fn func(context.Context) ([]string, error)) ([]string, error) {
	fn = common.Instrument("cleanup-codes", command, fn)
	if opts.ci {
		ctx, cancel := context.WithTimeout(context.Background(), opts.timeout)
		defer cancel()
		return fn(ctx)
	}
	return ui.Run("cleanup-codes "+command, fn)
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
