package system

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"github.com/calmora/calmora_backend/config"
	redispkg "github.com/calmora/calmora_backend/pkg/redis"
)

// NewCheckCommand verifies configuration and backing-service connectivity
// without starting the server. Useful in deploy pipelines.
func NewCheckCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate configuration and backing-service connectivity",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, err := cmd.Root().PersistentFlags().GetString("config")
			if err != nil {
				return err
			}

			cfg, err := config.ReadConfig(filepath.Dir(cfgPath))
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			fmt.Println("config: ok")

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			rdb, err := redispkg.NewRedisFromCentral(cfg.Redis)
			if err != nil {
				return fmt.Errorf("redis: %w", err)
			}
			defer rdb.Close()
			if err := rdb.Ping(ctx).Err(); err != nil {
				return fmt.Errorf("redis ping: %w", err)
			}
			fmt.Println("redis: ok")

			nc, err := nats.Connect(cfg.Nats.URL)
			if err != nil {
				return fmt.Errorf("nats: %w", err)
			}
			nc.Close()
			fmt.Println("nats: ok")

			return nil
		},
	}

	return cmd
}
