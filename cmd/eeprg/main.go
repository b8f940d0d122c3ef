package main

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	logLevel  = "info"
	portName  = ""
	sizeStr   = "32k"
	familyStr = "eeprom"
	pageStr   = "128"
)

func setupLogger() error {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("failed to parse log level: %v", err)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{})
	if term.IsTerminal(int(os.Stderr.Fd())) {
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.Kitchen,
		})
	}

	return nil
}

func main() {
	cmd := NewCommand()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eeprg",
		Short: "eeprg reads and programs EEPROM/Flash chips through a serial programmer",
		Long: `eeprg reads and programs byte-addressable memory chips (EEPROM/Flash)
through a microcontroller-based serial programmer.

Device geometry is given with --size, --type and --page; the programmer
port is found automatically or given with --port. Writes are paged,
bracketed by unlock/lock for EEPROM devices, and verified by readback.`,
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return setupLogger()
		},
	}

	globalFlags := cmd.PersistentFlags()
	globalFlags.StringVarP(&logLevel, "log-level", "l", "info", "log level (trace, debug, info, warn, error, fatal, panic)")
	globalFlags.StringVarP(&portName, "port", "p", "", "serial port of the programmer (default: autodetect by USB ID)")
	globalFlags.StringVarP(&sizeStr, "size", "s", sizeStr, "device capacity (1k, 2k, 4k, 8k, 16k, 32k, 64k, 128k, 256k, 512k, 1M)")
	globalFlags.StringVarP(&familyStr, "type", "t", familyStr, "device family (eeprom or flash)")
	globalFlags.StringVar(&pageStr, "page", pageStr, "page size in bytes (power of two, 1 to 4096)")

	cmd.AddCommand(
		NewEraseCommand(),
		NewDumpCommand(),
		NewReadCommand(),
		NewWriteCommand(),
	)

	return cmd
}
