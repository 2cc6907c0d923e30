package cli

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/contriboss/rugged-mysql-go/backend"
)

// addDBFlags registers the connection flags on cmd and its children.
func addDBFlags(cmd *cobra.Command) {
	fs := cmd.PersistentFlags()
	fs.String("dialect", string(backend.MySQL), "Database dialect: mysql or sqlite")
	fs.String("dsn", "", "Data source name; overrides the connection flags (required for sqlite)")
	fs.String("host", backend.DefaultHost, "MySQL host; localhost connects through --socket")
	fs.Int("port", backend.DefaultPort, "MySQL TCP port")
	fs.String("socket", backend.DefaultSocket, "MySQL unix socket")
	fs.String("username", backend.DefaultUsername, "MySQL user")
	fs.String("password", "", "MySQL password")
	fs.String("database", "", "MySQL database name")
	fs.Duration("timeout", 10*time.Second, "Connection timeout")
}

// dataSource resolves the dialect and DSN from flags, config and env.
func (a *app) dataSource() (backend.Dialect, string, error) {
	dialect, err := backend.ParseDialect(a.v.GetString("dialect"))
	if err != nil {
		return "", "", err
	}
	if dsn := a.v.GetString("dsn"); dsn != "" {
		return dialect, dsn, nil
	}
	if dialect == backend.SQLite {
		return "", "", errors.New("--dsn is required for the sqlite dialect")
	}

	dsn, err := backend.Options{
		Host:     a.v.GetString("host"),
		Port:     a.v.GetInt("port"),
		Socket:   a.v.GetString("socket"),
		Username: a.v.GetString("username"),
		Password: a.v.GetString("password"),
		Database: a.v.GetString("database"),
		Timeout:  a.v.GetDuration("timeout"),
	}.DSN()
	if err != nil {
		return "", "", err
	}
	return dialect, dsn, nil
}

// openBackend connects and brings the schema up to date.
func (a *app) openBackend(ctx context.Context) (*backend.Backend, error) {
	dialect, dsn, err := a.dataSource()
	if err != nil {
		return nil, err
	}
	a.logger.Debug().Str("dialect", dialect.String()).Msg("opening backend")
	return backend.OpenDSN(ctx, dialect, dsn)
}

func (a *app) migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database schema migrations.",
		Long: `Create or update the git2_refdb and git2_odb tables.

By default, migrates to the latest version. Use --target-version for specific versions.`,
		Example: `  # Migrate to latest version
  rugged-mysql migrate --database git

  # Roll back all migrations
  rugged-mysql migrate --database git --target-version 0`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dialect, dsn, err := a.dataSource()
			if err != nil {
				return err
			}
			db, err := backend.Open(cmd.Context(), dialect, dsn)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			result, err := backend.Migrate(db, dialect, a.v.GetInt("target-version"))
			if err != nil {
				return err
			}
			a.logger.Info().Uint64("from", uint64(result.From)).Uint64("to", uint64(result.To)).Msg("migration finished")
			printSuccess(cmd.OutOrStdout(), "%s", result)
			return nil
		},
	}
	addDBFlags(cmd)
	cmd.Flags().Int("target-version", backend.LatestVersion, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	return cmd
}
