package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"synthmidi/config"
	"synthmidi/core"
	"synthmidi/host/serial"
	"synthmidi/host/synth"
	"synthmidi/protocol"
	"synthmidi/storage"
)

var (
	configPath = flag.String("config", "", "MIDI map JSON file (factory map when empty)")
	device     = flag.String("device", "", "Serial device path of a UART MIDI interface")
	baud       = flag.Int("baud", serial.MIDIBaud, "Baud rate")
	portName   = flag.String("port", "", "System MIDI port name fragment (used when -device is empty)")
	verbose    = flag.Bool("verbose", false, "Enable verbose output")
)

func main() {
	flag.Usage = usage
	flag.Parse()

	if *verbose {
		log.SetLevel(log.DebugLevel)
		core.SetDebugEnabled(true)
	}
	core.SetDebugWriter(func(s string) { log.Debug(s) })

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	if err := run(args[0], args[1:]); err != nil {
		log.WithError(err).Error(args[0])
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: synthctl [flags] <command> [args]")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  ports                          List system MIDI ports")
	fmt.Fprintln(os.Stderr, "  cc <ch> <control> <value>      Send a control change")
	fmt.Fprintln(os.Stderr, "  program <ch> <n>               Select a preset")
	fmt.Fprintln(os.Stderr, "  param <ch> <index> <value14>   Set a continuous parameter")
	fmt.Fprintln(os.Stderr, "  push <dir>                     Send a preset bank")
	fmt.Fprintln(os.Stderr, "  capture <dir> <seconds>        Receive a preset dump into a bank")
	fmt.Fprintln(os.Stderr, "  monitor <seconds>              Print own-format sysex frames")
	fmt.Fprintln(os.Stderr, "  mcp                            Serve the commands as MCP tools on stdio")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Flags:")
	flag.PrintDefaults()
}

func run(cmd string, args []string) error {
	if cmd == "ports" {
		ins, outs := synth.ListPorts()
		defer synth.CloseDrivers()
		fmt.Println("Inputs:")
		for _, name := range ins {
			fmt.Println("  " + name)
		}
		fmt.Println("Outputs:")
		for _, name := range outs {
			fmt.Println("  " + name)
		}
		return nil
	}

	cfg, err := config.LoadFile(*configPath)
	if err != nil {
		return errors.Wrap(err, "load config")
	}

	defer synth.CloseDrivers()

	s, err := connect(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	switch cmd {
	case "cc":
		v, err := byteArgs(args, 3)
		if err != nil {
			return err
		}
		return s.SendControlChange(v[0], v[1], v[2])

	case "program":
		v, err := byteArgs(args, 2)
		if err != nil {
			return err
		}
		return s.SendProgramChange(v[0], v[1])

	case "param":
		if len(args) != 3 {
			return errors.New("param needs <ch> <index> <value14>")
		}
		ch, err := strconv.ParseUint(args[0], 10, 4)
		if err != nil {
			return errors.Wrap(err, "channel")
		}
		index, err := strconv.Atoi(args[1])
		if err != nil {
			return errors.Wrap(err, "index")
		}
		value, err := strconv.ParseUint(args[2], 10, 14)
		if err != nil {
			return errors.Wrap(err, "value")
		}
		return s.SetParameter(uint8(ch), index, uint16(value))

	case "push":
		if len(args) != 1 {
			return errors.New("push needs <dir>")
		}
		bank, err := storage.OpenFileBank(args[0], core.NewPreset(cfg))
		if err != nil {
			return err
		}
		sent, err := s.PushBank(bank, synth.DefaultFrameGap)
		fmt.Printf("%d presets sent\n", sent)
		return err

	case "capture":
		if len(args) != 2 {
			return errors.New("capture needs <dir> <seconds>")
		}
		seconds, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return errors.Wrap(err, "seconds")
		}
		bank, err := storage.OpenFileBank(args[0], core.NewPreset(cfg))
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		fmt.Println("Waiting for dump, start it on the synthesizer...")
		n, err := s.Capture(ctx, bank, bank, time.Duration(seconds*float64(time.Second)))
		fmt.Printf("%d presets captured into %s\n", n, bank.Dir())
		if err != nil && err != context.Canceled {
			return err
		}
		if *verbose {
			core.DumpEventRing()
		}
		return bank.LastErr()

	case "monitor":
		if len(args) != 1 {
			return errors.New("monitor needs <seconds>")
		}
		seconds, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return errors.Wrap(err, "seconds")
		}
		return monitor(s, time.Now().Add(time.Duration(seconds*float64(time.Second))))

	case "mcp":
		return synth.ServeMCP(s, protocol.Version)

	default:
		return errors.Errorf("unknown command %q", cmd)
	}
}

// connect opens the serial device when given, otherwise a system MIDI port
func connect(cfg *core.MIDIConfig) (*synth.Synth, error) {
	if *device != "" {
		sc := serial.DefaultConfig(*device)
		sc.Baud = *baud
		log.WithFields(log.Fields{"device": sc.Device, "baud": sc.Baud}).Info("Opening serial MIDI")

		link, err := synth.OpenSerialLink(sc, cfg.SysexID)
		if err != nil {
			return nil, err
		}
		return synth.New(link, cfg), nil
	}

	if *portName == "" {
		return nil, errors.New("either -device or -port is required")
	}
	log.WithField("port", *portName).Info("Opening MIDI port")

	link, err := synth.OpenPortLink(*portName)
	if err != nil {
		return nil, err
	}
	return synth.New(link, cfg), nil
}

func monitor(s *synth.Synth, until time.Time) error {
	for {
		left := time.Until(until)
		if left <= 0 {
			return nil
		}

		frame, err := s.NextFrame(left)
		if err == protocol.ErrTimeout {
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Printf("command 0x%02X, %d bytes: % X\n", frame.Command, len(frame.Payload), frame.Payload)
	}
}

func byteArgs(args []string, n int) ([]uint8, error) {
	if len(args) != n {
		return nil, errors.Errorf("expected %d arguments, got %d", n, len(args))
	}
	out := make([]uint8, n)
	for i, a := range args {
		v, err := strconv.ParseUint(a, 10, 7)
		if err != nil {
			return nil, errors.Wrapf(err, "argument %d", i+1)
		}
		out[i] = uint8(v)
	}
	return out, nil
}
