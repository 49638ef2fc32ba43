// Command catalog-daemon owns the catalog store and fronts it with the
// Unix-domain-socket IPC façade, so every mlsvc-agent process on a
// device shares one catalog instead of opening its own.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/fx"

	"github.com/nnstreamer/ml-service-core/internal/catalogipc"
	"github.com/nnstreamer/ml-service-core/pkg/catalog"
	"github.com/nnstreamer/ml-service-core/pkg/configutils"
	"github.com/nnstreamer/ml-service-core/pkg/constants"
	"github.com/nnstreamer/ml-service-core/pkg/logging"
	"github.com/nnstreamer/ml-service-core/pkg/version"
)

var (
	configFilePath string
	debug          bool
)

var rootCmd = &cobra.Command{
	Use:     "catalog-daemon",
	Short:   "Run the machine-learning service catalog daemon",
	Long:    "catalog-daemon owns the catalog database and serves it to mlsvc-agent processes over a Unix domain socket.",
	Version: fmt.Sprintf("gitVersion=%s, gitCommit=%s", version.GitVersion, version.GitCommit),
	RunE:    run,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFilePath, "config", "c", "", "path to config file")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug mode")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	app := fx.New(
		configProvider(cmd),
		logging.Module,
		fx.Provide(newStore, newServer),
		fx.Invoke(registerLifecycle),
	)
	app.Run()
	return app.Err()
}

func configProvider(cli *cobra.Command) fx.Option {
	return fx.Provide(func() (*viper.Viper, error) {
		v := viper.GetViper()

		v.SetEnvPrefix(constants.AgentAppName)
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()

		v.SetDefault("catalog.db_path", "/var/lib/mlsvc/catalog.db")
		v.SetDefault("catalog.socket_path", catalogipc.SystemSocketPath)

		if err := v.BindPFlag("debug", cli.Flags().Lookup("debug")); err != nil {
			panic(err)
		}
		if configFilePath == "" {
			return v, nil
		}
		if err := configutils.ResolveAndMergeFile(v, configFilePath); err != nil {
			return nil, fmt.Errorf("cannot read config file: %w", err)
		}
		for _, key := range v.AllKeys() {
			v.Set(key, v.Get(key))
		}
		return v, nil
	})
}

func newStore(v *viper.Viper, logger logging.Interface) (*catalog.Store, error) {
	path := v.GetString("catalog.db_path")
	if path == "" {
		return nil, errors.New("catalog.db_path must not be empty")
	}
	return catalog.Open(context.Background(), path, logger)
}

func newServer(v *viper.Viper, store *catalog.Store, logger logging.Interface) *catalogipc.Server {
	socketPath := v.GetString("catalog.socket_path")
	if socketPath == "" {
		socketPath = catalogipc.SystemSocketPath
	}
	return catalogipc.NewServer(store, socketPath, logger)
}

func registerLifecycle(lc fx.Lifecycle, store *catalog.Store, server *catalogipc.Server, logger logging.Interface, sh fx.Shutdowner) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				if err := server.Start(); err != nil {
					logger.WithError(err).Error("catalog IPC daemon exited")
				}
				if err := sh.Shutdown(); err != nil {
					logger.WithError(err).Error("failed to request shutdown after daemon exit")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := server.Shutdown(ctx); err != nil {
				logger.WithError(err).Error("error shutting down catalog IPC daemon")
			}
			return store.Close()
		},
	})
}
