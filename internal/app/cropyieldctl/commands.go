package cropyieldctl

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/go-playground/validator"
	"github.com/spf13/cobra"
	"github.com/streadway/amqp"
	"golang.org/x/sync/errgroup"

	"github.com/magabrotheeeer/cropyield/internal/estimator"
	"github.com/magabrotheeeer/cropyield/internal/http/handlers/prediction/predict"
	"github.com/magabrotheeeer/cropyield/internal/http/response"
	"github.com/magabrotheeeer/cropyield/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/cropyield/internal/lib/sl"
	"github.com/magabrotheeeer/cropyield/internal/models"
	"github.com/magabrotheeeer/cropyield/internal/services/auth"
	"github.com/magabrotheeeer/cropyield/internal/services/recommendation"
)

// ErrNoBroker — в конфиге не задан адрес RabbitMQ.
var ErrNoBroker = errors.New("rabbitmq url is not set")

func newInitDBCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "init-db",
		Short: "Create the users table if it does not exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, closeDB, err := opts.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = closeDB() }()

			if err := store.Init(cmd.Context()); err != nil {
				return err
			}
			writeLine(cmd.OutOrStdout(), "users table is ready")
			return nil
		},
	}
}

func newRegisterCommand(opts *options) *cobra.Command {
	var pw string
	cmd := &cobra.Command{
		Use:   "register <username> <email>",
		Short: "Register a user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			username, email := args[0], args[1]
			secret, err := promptPassword(cmd, pw)
			if err != nil {
				return err
			}

			store, closeDB, err := opts.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = closeDB() }()

			if err := store.Init(cmd.Context()); err != nil {
				return err
			}
			created, err := store.Register(cmd.Context(), username, secret, email)
			if err != nil {
				return err
			}
			if !created {
				return auth.ErrUserExists
			}
			opts.logger.Info("user registered", slog.String("username", username))
			writeLine(cmd.OutOrStdout(), "user created successfully")
			return nil
		},
	}
	cmd.Flags().StringVar(&pw, "password", "", "password (prompted without echo when empty)")
	return cmd
}

func newAuthenticateCommand(opts *options) *cobra.Command {
	var pw string
	cmd := &cobra.Command{
		Use:   "authenticate <username>",
		Short: "Check a username and password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			username := args[0]
			secret, err := promptPassword(cmd, pw)
			if err != nil {
				return err
			}

			store, closeDB, err := opts.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = closeDB() }()

			ok, err := store.Authenticate(cmd.Context(), username, secret)
			if err != nil {
				return err
			}
			if !ok {
				return auth.ErrInvalidCredentials
			}
			writeLine(cmd.OutOrStdout(), "authenticated as %s", username)
			return nil
		},
	}
	cmd.Flags().StringVar(&pw, "password", "", "password (prompted without echo when empty)")
	return cmd
}

func newRecommendCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "recommend <yield>",
		Short: "Print the recommendation bundle for a predicted yield in kg/ha",
		// отрицательный прогноз вроде -50 иначе разбирается как флаг
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 && args[0] == "--" {
				args = args[1:]
			}
			if len(args) == 1 && (args[0] == "-h" || args[0] == "--help") {
				return cmd.Help()
			}
			if len(args) != 1 {
				return fmt.Errorf("accepts 1 arg(s), received %d", len(args))
			}

			y, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("invalid yield %q: %w", args[0], err)
			}
			printAdvice(cmd, y)
			return nil
		},
	}
}

type featureFlag struct {
	name  string
	usage string
	dst   **float64
}

func newPredictCommand(opts *options) *cobra.Command {
	var (
		modelPath string
		baseScore float64
		req       predict.Request
		values    [models.FeatureCount]float64
	)
	features := []featureFlag{
		{"temperature", "temperature, °C [0,50]", &req.Temperature},
		{"rainfall", "rainfall, mm [0,500]", &req.Rainfall},
		{"soil-ph", "soil pH [3,10]", &req.SoilPH},
		{"soil-moisture", "soil moisture, % [0,100]", &req.SoilMoisture},
		{"previous-yield", "previous yield, kg [0,10000]", &req.PreviousYield},
		{"fertilizer-usage", "fertilizer usage, kg/ha [0,1000]", &req.FertilizerUsage},
		{"pesticide-usage", "pesticide usage, l/ha [0,100]", &req.PesticideUsage},
	}

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Estimate the yield for one field with a local model and print advice",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for i, f := range features {
				if cmd.Flags().Changed(f.name) {
					*f.dst = &values[i]
				}
			}
			if err := validator.New().Struct(req); err != nil {
				var validateErr validator.ValidationErrors
				if errors.As(err, &validateErr) {
					return errors.New(response.ValidationError(validateErr).Error)
				}
				return err
			}

			if modelPath == "" {
				cfg, err := opts.loadConfig()
				if err != nil {
					return err
				}
				modelPath = cfg.Model.Path
				if !cmd.Flags().Changed("base-score") {
					baseScore = cfg.Model.BaseScore
				}
			}
			if modelPath == "" {
				return estimator.ErrModelUnavailable
			}
			ens, err := estimator.LoadTreeEnsemble(modelPath, baseScore)
			if err != nil {
				return err
			}

			y, err := ens.Estimate(cmd.Context(), req.Features())
			if err != nil {
				return err
			}
			writeLine(cmd.OutOrStdout(), "crop: %s", req.Crop)
			printAdvice(cmd, y)
			return nil
		},
	}

	cmd.Flags().StringVar(&modelPath, "model", "", "XGBoost JSON dump (defaults to model.path from config)")
	cmd.Flags().Float64Var(&baseScore, "base-score", estimator.DefaultBaseScore, "model base score")
	cmd.Flags().StringVar(&req.Crop, "crop", "Wheat", "crop name")
	for i, f := range features {
		cmd.Flags().Float64Var(&values[i], f.name, 0, f.usage)
	}
	return cmd
}

func printAdvice(cmd *cobra.Command, y float64) {
	out := cmd.OutOrStdout()
	rec := recommendation.Derive(y)
	writeLine(out, "predicted yield: %.2f kg/ha", y)
	writeLine(out, "band: %s", recommendation.BandFor(y))
	writeLine(out, "crop advice: %s", rec.CropAdvice)
	writeLine(out, "fertilizer advice: %s", rec.FertilizerAdvice)
	writeLine(out, "pesticide advice: %s", rec.PesticideAdvice)
}

func newConsumeEventsCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "consume-events",
		Short: "Print audit events from RabbitMQ until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if cfg.RabbitMQ.URL == "" {
				return ErrNoBroker
			}

			conn, err := rabbitmq.Connect(cmd.Context(), cfg.RabbitMQ.URL, cfg.RabbitMQ.Retries, cfg.RabbitMQ.RetryDelay)
			if err != nil {
				return err
			}
			defer func() { _ = conn.Close() }()

			queues := rabbitmq.GetAuditQueues()
			ch, err := rabbitmq.SetupChannel(conn, cfg.RabbitMQ.Exchange, queues)
			if err != nil {
				return err
			}
			defer func() { _ = ch.Close() }()

			var mu sync.Mutex
			out := cmd.OutOrStdout()
			g, ctx := errgroup.WithContext(cmd.Context())
			for _, q := range queues {
				g.Go(func() error {
					return rabbitmq.ConsumeMessages(ctx, opts.logger, ch, q.QueueName, func(d amqp.Delivery) error {
						mu.Lock()
						defer mu.Unlock()
						writeLine(out, "%s %s", d.RoutingKey, d.Body)
						return nil
					})
				})
			}
			if err := g.Wait(); err != nil {
				opts.logger.Error("consumer stopped", sl.Err(err))
				return err
			}
			return nil
		},
	}
}
