package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"aqwidget/internal/app"
)

func usage() {
	fmt.Fprintf(os.Stderr, `usage: %s [-config path] [mode]

modes:
  run     start the widget daemon (default)
  update  perform one data refresh and exit
`, os.Args[0])
	flag.PrintDefaults()
}

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "./config.yaml", "path to config file (yaml or json)")
	flag.Usage = usage
	flag.Parse()

	mode := "run"
	if flag.NArg() > 0 {
		mode = flag.Arg(0)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	switch mode {
	case "update":
		if err := app.RunUpdate(ctx, cfgPath); err != nil {
			fmt.Fprintln(os.Stderr, "update failed:", err)
			os.Exit(1)
		}
	case "run":
		a, err := app.NewApp(cfgPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "fatal:", err)
			os.Exit(1)
		}
		if err := a.Start(ctx); err != nil {
			fmt.Fprintln(os.Stderr, "fatal start:", err)
			os.Exit(1)
		}
		<-ctx.Done()
		_ = a.Stop(context.Background())
	default:
		usage()
		os.Exit(2)
	}
}
