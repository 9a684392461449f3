package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yeisme/blobvault/pkg/configs"
	"github.com/yeisme/blobvault/pkg/internal/model"
	"github.com/yeisme/blobvault/pkg/internal/storage/db"
)

var (
	dbCmd = &cobra.Command{
		Use:   "db",
		Short: "Database related commands",
	}

	dbListCmd = &cobra.Command{
		Use:   "ls",
		Short: "list all registered database types",
		Run: func(cmd *cobra.Command, args []string) {

			fmt.Fprintln(cmd.OutOrStdout(), "Registered database types:")
			for _, dbType := range db.GetRegisteredDBTypes() {
				fmt.Fprintln(cmd.OutOrStdout(), " - "+dbType)
			}
		},
	}

	// 建表/迁移：blobs、file_records、quota_accounts.
	dbMigrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "run schema migrations for vault tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := configs.InitConfig(configPath); err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			client, err := db.New(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}

			if err := model.AutoMigrate(client.DB); err != nil {
				return fmt.Errorf("failed to migrate schema: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "migration complete")

			return nil
		},
	}
)

// registerDBCommands 注册数据库相关命令.
func registerDBCommands() {
	rootCmd.AddCommand(dbCmd)

	dbCmd.AddCommand(dbListCmd)
	dbCmd.AddCommand(dbMigrateCmd)
}
