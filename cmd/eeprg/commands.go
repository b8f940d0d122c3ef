package main

import (
	"fmt"
	"math"
	"os"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tinyprog/go-eeprom/device"
	"github.com/tinyprog/go-eeprom/link"
	"github.com/tinyprog/go-eeprom/programmer"
)

// profileFromFlags builds the device geometry from the persistent flags.
func profileFromFlags() (device.Profile, error) {
	capacity, err := device.ParseCapacity(sizeStr)
	if err != nil {
		return device.Profile{}, err
	}
	family, err := device.ParseFamily(familyStr)
	if err != nil {
		return device.Profile{}, err
	}
	pageSize, err := device.ParsePageSize(pageStr)
	if err != nil {
		return device.Profile{}, err
	}

	profile := device.Profile{
		Capacity: capacity,
		PageSize: pageSize,
		Family:   family,
	}
	if err := profile.Validate(); err != nil {
		return device.Profile{}, err
	}
	return profile, nil
}

// openLink opens the programmer: the named port if given, otherwise the
// first USB serial adapter matching the programmer's VID/PID.
func openLink() (*link.Serial, error) {
	if portName != "" {
		return link.Open(portName)
	}
	lnk, err := link.Discover()
	if err != nil {
		return nil, err
	}
	logrus.WithField("port", lnk.Port()).Debug("programmer found")
	return lnk, nil
}

func newProgrammer(lnk link.Link, opts ...programmer.Option) *programmer.Programmer {
	opts = append([]programmer.Option{
		programmer.WithLogger(logrusAdapter{}),
		programmer.WithProgressCallback(newProgressSink()),
	}, opts...)
	return programmer.New(lnk, opts...)
}

func NewEraseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "erase",
		Short: "Erase the whole chip",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			lnk, err := openLink()
			if err != nil {
				return err
			}
			defer lnk.Close()

			if err := newProgrammer(lnk).Erase(cmd.Context()); err != nil {
				return err
			}

			color.Green("Chip erase acknowledged.")
			// The protocol has no erase-verified signal.
			fmt.Println("Success is assumed, not confirmed by the device: dump the chip to check that all bytes read ff.")
			return nil
		},
	}
}

func NewDumpCommand() *cobra.Command {
	var start, end uint32

	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Print device contents as a hexdump",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			profile, err := profileFromFlags()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("end") {
				end = profile.Capacity - 1
			}
			if end >= profile.Capacity || start > end {
				return fmt.Errorf("range 0x%x-0x%x outside device of %d bytes", start, end, profile.Capacity)
			}

			lnk, err := openLink()
			if err != nil {
				return err
			}
			defer lnk.Close()

			prog := programmer.New(lnk, programmer.WithLogger(logrusAdapter{}))
			return prog.Dump(cmd.Context(), device.Range{Start: start, End: end}, os.Stdout)
		},
	}

	cmd.Flags().Uint32Var(&start, "start", 0, "first address to dump")
	cmd.Flags().Uint32Var(&end, "end", 0, "last address to dump (default: end of device)")
	return cmd
}

func NewReadCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "read <file>",
		Short: "Read the whole device into a binary file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := profileFromFlags()
			if err != nil {
				return err
			}

			f, err := os.Create(args[0])
			if err != nil {
				return fmt.Errorf("cannot open output file: %w", err)
			}
			defer f.Close()

			lnk, err := openLink()
			if err != nil {
				return err
			}
			defer lnk.Close()

			rng := device.Range{Start: 0, End: profile.Capacity - 1}
			n, err := newProgrammer(lnk).Read(cmd.Context(), rng, f)
			if err != nil {
				return err
			}

			color.Green("%d bytes read into %s.", n, args[0])
			return nil
		},
	}
}

func NewWriteCommand() *cobra.Command {
	var verify bool

	cmd := &cobra.Command{
		Use:   "write <file>",
		Short: "Program a binary file into the device and verify it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := profileFromFlags()
			if err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("cannot open source file: %w", err)
			}
			defer f.Close()

			info, err := f.Stat()
			if err != nil {
				return err
			}
			if info.Size() == 0 {
				return fmt.Errorf("source file %s is empty", args[0])
			}
			if info.Size() > math.MaxUint32 {
				return fmt.Errorf("source file %s is too large (%d bytes)", args[0], info.Size())
			}

			lnk, err := openLink()
			if err != nil {
				return err
			}
			defer lnk.Close()

			prog := newProgrammer(lnk, programmer.WithVerify(verify))
			n, err := prog.Write(cmd.Context(), profile, f, uint32(info.Size()))
			if err != nil {
				return err
			}

			if verify {
				color.Green("%d bytes written and verified.", n)
			} else {
				color.Green("%d bytes written (verification skipped).", n)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&verify, "verify", true, "verify written data by readback")
	return cmd
}
