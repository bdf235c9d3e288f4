package main

import (
	"context"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/sentinelml/toxguard/pkg/api"
	"github.com/sentinelml/toxguard/pkg/cache"
	"github.com/sentinelml/toxguard/pkg/classify"
	"github.com/sentinelml/toxguard/pkg/config"
	"github.com/sentinelml/toxguard/pkg/engine"
	"github.com/sentinelml/toxguard/pkg/registry"
)

var (
	name    = "toxguard"
	version = "v1.0.0-default"
	commit  = ""

	debug = false

	debugFlag = &cli.BoolFlag{
		Name:        "debug",
		Usage:       "Prints verbose logs (optional, default: false)",
		Destination: &debug,
	}
)

func main() {
	initLogging(name, version)

	app := &cli.App{
		Name:    name,
		Version: fmt.Sprintf("%s - (commit: %s)", version, commit),
		Usage:   "Harassment and misogyny scoring service",
		Flags: []cli.Flag{
			debugFlag,
		},
		Commands: []*cli.Command{
			serveCmd,
			downloadCmd,
		},
		Before: func(c *cli.Context) error {
			if c.Bool(debugFlag.Name) {
				log.SetLevel(log.DebugLevel)
			}
			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		fatalErr(err)
	}
}

var serveCmd = &cli.Command{
	Name:  "serve",
	Usage: "Load the classifiers and serve the scoring API",
	Action: func(c *cli.Context) error {
		cfg, err := config.FromEnv()
		if err != nil {
			// A bad scoring configuration is fatal: the engine must never
			// reach a ready state with invalid weights or thresholds.
			return err
		}

		if cfg.AutoDownloadModels {
			if err := ensureModels(cfg); err != nil {
				return err
			}
		}

		reg := registry.New(hugotLoader(registry.ModelHarassment, cfg.HarassmentModelPath,
			cfg.HarassmentPositiveLabel, cfg), hugotLoader(registry.ModelMisogyny,
			cfg.MisogynyModelPath, cfg.MisogynyPositiveLabel, cfg))
		defer func() { _ = reg.Close() }()

		if err := reg.Initialize(c.Context); err != nil {
			// Serve anyway: health and models/info report the degraded
			// state and scoring returns 503 until a successful reload.
			log.WithError(err).Error("model initialization incomplete")
		}

		var resultCache engine.ResultCache
		if cfg.RedisAddr != "" {
			sc := cache.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.CacheTTL, cfg.Scoring)
			if err := sc.Ping(c.Context); err != nil {
				log.WithError(err).Warn("score cache unreachable, continuing without cache")
			} else {
				defer func() { _ = sc.Close() }()
				resultCache = sc
				log.WithField("addr", cfg.RedisAddr).Info("score cache enabled")
			}
		}

		svc, err := engine.NewService(reg, cfg.Scoring, resultCache)
		if err != nil {
			return err
		}

		log.WithFields(log.Fields{
			"addr":  cfg.Addr(),
			"ready": reg.IsReady(),
		}).Info("starting API server")

		return api.New(svc).Listen(cfg.Addr())
	},
}

var downloadCmd = &cli.Command{
	Name:  "download",
	Usage: "Download the classifier model artifacts and exit",
	Action: func(c *cli.Context) error {
		cfg, err := config.FromEnv()
		if err != nil {
			return err
		}
		return ensureModels(cfg)
	},
}

// ensureModels fetches any missing model artifacts.
func ensureModels(cfg *config.Config) error {
	if err := classify.EnsureModelDownloaded(cfg.HarassmentModelRepo, cfg.HarassmentModelPath); err != nil {
		return fmt.Errorf("harassment model download: %w", err)
	}
	if err := classify.EnsureModelDownloaded(cfg.MisogynyModelRepo, cfg.MisogynyModelPath); err != nil {
		return fmt.Errorf("misogyny model download: %w", err)
	}
	return nil
}

// hugotLoader builds a registry loader for one ONNX classifier.
func hugotLoader(modelName, modelPath, positiveLabel string, cfg *config.Config) registry.Loader {
	return func(ctx context.Context) (classify.Classifier, error) {
		return classify.NewHugotClassifier(classify.HugotConfig{
			Name:            modelName,
			ModelPath:       modelPath,
			PositiveLabel:   positiveLabel,
			OnnxLibraryPath: cfg.OnnxLibraryPath,
			MaxLength:       cfg.MaxTextLength,
		})
	}
}

func initLogging(name, version string) {
	log.SetOutput(os.Stdout)
	log.SetLevel(log.InfoLevel)
	log.SetFormatter(&log.JSONFormatter{
		FieldMap: log.FieldMap{
			log.FieldKeyTime: "timestamp",
		},
	})
	log.WithFields(log.Fields{
		"name":    name,
		"version": version,
	}).Debug("logging initialized")
}

func fatalErr(err error) {
	log.Fatal(err)
}
