package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/hysios/zkregistry/config"
	viperprovider "github.com/hysios/zkregistry/config/provider/viper"
	"github.com/hysios/zkregistry/logger"
	"github.com/hysios/zkregistry/registry"
	"github.com/hysios/zkregistry/registry/zookeeper"
	"github.com/spf13/viper"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func main() {
	app := &cli.App{
		Name:  "zkregistry",
		Usage: "watch provider addresses of dubbo interfaces in a zookeeper ensemble",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "servers",
				Usage:   "zookeeper ensemble addresses",
				Value:   cli.NewStringSlice("127.0.0.1:2181"),
				Aliases: []string{"s"},
			},
			&cli.StringFlag{
				Name:     "application",
				Usage:    "name this process registers its demand under",
				Required: true,
				Aliases:  []string{"a"},
			},
			&cli.StringSliceFlag{
				Name:     "interface",
				Usage:    "interface to track, repeatable",
				Required: true,
				Aliases:  []string{"i"},
			},
			&cli.StringFlag{
				Name:  "root",
				Usage: "registry namespace root",
				Value: zookeeper.DefaultRoot,
			},
			&cli.StringFlag{
				Name:    "config",
				Usage:   "settings file with per-interface group/version",
				Aliases: []string{"c"},
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		logger.Cli.Fatal("zkregistry failed", zap.Error(err))
	}
}

func run(c *cli.Context) error {
	l, err := zap.NewProduction()
	if err != nil {
		return err
	}
	logger.SetLogger(l)
	defer l.Sync()

	if path := c.String("config"); path != "" {
		settings, err := loadSettings(path)
		if err != nil {
			return err
		}
		zookeeper.SetDefaultSettings(settings)
	}

	reg, err := registry.Open("zookeeper", registry.Options{
		Servers:     c.StringSlice("servers"),
		Application: c.String("application"),
		Interfaces:  c.StringSlice("interface"),
		Root:        c.String("root"),
	})
	if err != nil {
		return err
	}
	defer reg.Close()

	reg.Subscribe(&printSubscriber{})
	if err := reg.Start(); err != nil {
		return err
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	return nil
}

func loadSettings(path string) (zookeeper.Settings, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	cfg := config.NewConfig(nil, viperprovider.NewViperProvider(v))
	return &zookeeper.ConfigSettings{Config: cfg}, nil
}

type printSubscriber struct{}

func (printSubscriber) OnData(addrs []string) {
	logger.Logger.Info("provider addresses", zap.Strings("addrs", addrs))
}

func (printSubscriber) OnError(err error) {
	logger.Logger.Error("registry session error", zap.Error(err))
}
