// cmd/redeye/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"hp82240-service/internal/charset"
	"hp82240-service/internal/config"
	"hp82240-service/internal/printfile"
	"hp82240-service/internal/protocol"
	"hp82240-service/internal/sender"
	"hp82240-service/internal/utils"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := pflag.NewFlagSet("redeye", pflag.ContinueOnError)
	fs.StringP("config", "c", "", "Configuration file")
	port := fs.StringP("port", "p", "", "Serial port of the IR transmitter, 'stdout' writes to the console")
	inputFile := fs.StringP("input-file", "i", "", "YAML print file to send")
	charList := fs.Bool("charlist", false, "Write a print file listing every printable character and exit")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	if *charList {
		out, err := printfile.Marshal(printfile.CharListing())
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		os.Stdout.Write(out)
		return 0
	}

	// Only the config file flag is shared with the receiver settings
	cfgFlags := pflag.NewFlagSet("redeye-config", pflag.ContinueOnError)
	cfgFlags.AddFlag(fs.Lookup("config"))
	cfg, err := config.Load(cfgFlags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}

	if *port == "" {
		*port = cfg.Sender.Port
	}
	name, err := config.CheckPortName(*port, config.PortStdout)
	if err != nil || name == "" || *inputFile == "" {
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
		fmt.Fprintln(os.Stderr, "usage: redeye -p <port|stdout> -i <file.yaml>")
		fs.PrintDefaults()
		return 2
	}

	logger, err := utils.NewLogger(&cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}
	defer utils.CloseLogger(logger)

	if err := send(cfg, name, *inputFile, logger); err != nil {
		logger.Error("Send failed", zap.Error(err))
		return 1
	}
	return 0
}

func send(cfg *config.Config, port, inputFile string, logger *zap.Logger) error {
	f, err := printfile.ParseFile(inputFile)
	if err != nil {
		return err
	}
	cs, err := charset.ByName(cfg.Input.Charset)
	if err != nil {
		return err
	}

	tx, opts, err := openTransmitter(cfg, port, logger)
	if err != nil {
		return err
	}
	defer tx.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Sending print file",
		zap.String("file", inputFile),
		zap.String("title", f.Title),
		zap.String("port", tx.Name()),
	)
	_, err = sender.New(tx, opts, logger).Send(ctx, printfile.NewReader(f, cs, logger))
	return err
}

// openTransmitter opens the serial transmitter, or the console without any
// pacing for the stdout port
func openTransmitter(cfg *config.Config, port string, logger *zap.Logger) (protocol.Transmitter, sender.Options, error) {
	if port == config.PortStdout {
		return protocol.NewConsoleTransmitter(os.Stdout), sender.Options{}, nil
	}

	ready := byte('$')
	if cfg.Sender.ReadyByte != "" {
		ready = cfg.Sender.ReadyByte[0]
	}
	serialCfg := cfg.Serial
	serialCfg.Port = port

	tx, err := protocol.OpenSerialTransmitter(serialCfg, ready, logger)
	if err != nil {
		return nil, sender.Options{}, err
	}
	opts := sender.Options{
		ByteDelay: durationOr(cfg.Sender.ByteDelay, sender.DefaultByteDelay),
		LineDelay: durationOr(cfg.Sender.LineDelay, sender.DefaultLineDelay),
		ReadyWait: durationOr(cfg.Sender.ReadyTimeout, sender.DefaultReadyWait),
	}
	return tx, opts, nil
}

func durationOr(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}
