// Command cofferd runs the coffer daemon in the foreground. It is the
// standalone equivalent of `coffer daemon`, suitable for service managers.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"coffer/internal/config"
	"coffer/internal/daemonrun"
)

func main() {
	configPath := flag.String("config", "", "configuration file path")
	logLevel := flag.String("log-level", "", "override the configured log level")
	flag.Parse()

	cfg, _, _, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	if err := daemonrun.Run(context.Background(), cfg, daemonrun.Options{
		LogLevel:   *logLevel,
		Foreground: true,
	}); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
