package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/corechain/syscore"
	"github.com/corechain/syscore/schema"
)

func main() {
	app := &cli.App{
		Name: "syscore",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "db_dir", Value: "./data/bolt", Usage: "bolt db dir path", EnvVars: []string{"DB_DIR"}},
			&cli.StringFlag{Name: "mysql", Value: "root@tcp(127.0.0.1:3306)/syscore?charset=utf8mb4&parseTime=True&loc=Local", Usage: "mysql dsn", EnvVars: []string{"MYSQL"}},
			&cli.StringFlag{Name: "sqlite_dir", Value: "", Usage: "sqlite dir path, used instead of mysql when set", EnvVars: []string{"SQLITE_DIR"}},
			&cli.StringFlag{Name: "port", Value: ":8080", EnvVars: []string{"PORT"}},
			&cli.IntFlag{Name: "tick_interval", Value: 10, Usage: "seconds between market sweeps", EnvVars: []string{"TICK_INTERVAL"}},
			&cli.IntFlag{Name: "sweep_max", Value: 2, Usage: "rows drained per sweep", EnvVars: []string{"SWEEP_MAX"}},
			&cli.BoolFlag{Name: "kafka", Value: false, Usage: "publish market events to kafka", EnvVars: []string{"KAFKA"}},
			&cli.StringFlag{Name: "kafka_uri", Value: "127.0.0.1:9092", EnvVars: []string{"KAFKA_URI"}},
		},
		Action: run,
	}

	err := app.Run(os.Args)
	if err != nil {
		log.Fatal(err)
	}
}

func run(c *cli.Context) error {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)

	cfg := &schema.Config{
		Mysql:        c.String("mysql"),
		SqliteDir:    c.String("sqlite_dir"),
		UseSqlite:    c.String("sqlite_dir") != "",
		Port:         c.String("port"),
		BoltDir:      c.String("db_dir"),
		TickInterval: c.Int("tick_interval"),
		SweepMax:     c.Int("sweep_max"),
		Kafka: schema.Kafka{
			Start: c.Bool("kafka"),
			Uri:   c.String("kafka_uri"),
		},
	}

	s := syscore.New(cfg)
	s.Run(cfg.Port, cfg.TickInterval)

	<-signals
	s.Close()

	return nil
}
