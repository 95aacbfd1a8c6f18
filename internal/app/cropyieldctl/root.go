// Package cropyieldctl собирает административный CLI: инициализацию базы,
// регистрацию и проверку пользователей, прогноз и рекомендации без HTTP,
// чтение событий аудита из RabbitMQ.
package cropyieldctl

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/magabrotheeeer/cropyield/internal/config"
	"github.com/magabrotheeeer/cropyield/internal/lib/password"
	"github.com/magabrotheeeer/cropyield/internal/services/credentials"
	"github.com/magabrotheeeer/cropyield/internal/storage"
)

// readPassword подменяется в тестах, чтобы не трогать терминал.
var readPassword = term.ReadPassword

type options struct {
	configPath string
	logger     *slog.Logger
}

// NewRootCommand возвращает корневую команду со всеми подкомандами.
func NewRootCommand(logger *slog.Logger) *cobra.Command {
	opts := &options{logger: logger}

	root := &cobra.Command{
		Use:           "cropyieldctl",
		Short:         "Administer the crop yield advisor",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to YAML config (defaults to CONFIG_PATH, then environment)")

	root.AddCommand(
		newInitDBCommand(opts),
		newRegisterCommand(opts),
		newAuthenticateCommand(opts),
		newRecommendCommand(),
		newPredictCommand(opts),
		newConsumeEventsCommand(opts),
	)
	return root
}

// loadConfig читает конфиг из флага, затем из CONFIG_PATH, иначе только из окружения.
func (o *options) loadConfig() (*config.Config, error) {
	path := o.configPath
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		return config.LoadEnv()
	}
	return config.Load(path)
}

// openStore открывает хранилище учётных данных; close нужно вызвать по завершении.
func (o *options) openStore(ctx context.Context) (*credentials.Store, func() error, error) {
	const op = "cropyieldctl.openStore"

	cfg, err := o.loadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	db, err := storage.New(ctx, cfg.Storage.Driver, cfg.Storage.ConnectionString)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	hasher, err := password.New(cfg.Password.Hasher)
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	store, err := credentials.New(db, hasher)
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	return store, db.Close, nil
}

// promptPassword возвращает пароль из флага или спрашивает его без эха.
func promptPassword(cmd *cobra.Command, fromFlag string) (string, error) {
	if fromFlag != "" {
		return fromFlag, nil
	}
	w := cmd.ErrOrStderr()
	if _, err := fmt.Fprint(w, "Enter password: "); err != nil {
		return "", err
	}
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(pw), nil
}

func writeLine(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format+"\n", args...)
}
