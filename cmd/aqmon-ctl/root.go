package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	gobug "go.bug.st/serial"

	"github.com/taoyao-code/aqmon/internal/command"
	"github.com/taoyao-code/aqmon/internal/settings"
)

type globalOptions struct {
	port    string
	baud    int
	timeout time.Duration
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}
	root := &cobra.Command{
		Use:           "aqmon-ctl",
		Short:         "Control attached aqmon",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.port, "port", "", "serial port (default: first enumerated port)")
	root.PersistentFlags().IntVar(&opts.baud, "baud", 115200, "baud rate")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 2*time.Second, "how long to wait for the reply line")

	root.AddCommand(newPortsCmd(), newConfigureCmd(opts))
	return root
}

func newPortsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ports",
		Short: "List serial ports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ports, err := getPortsList()
			if err != nil {
				return err
			}
			for _, p := range ports {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		},
	}
}

func newConfigureCmd(opts *globalOptions) *cobra.Command {
	configure := &cobra.Command{
		Use:   "configure",
		Short: "Change persistent device settings",
	}
	configure.AddCommand(newWifiCmd(opts))
	return configure
}

func newWifiCmd(opts *globalOptions) *cobra.Command {
	var cfg settings.WifiConfig
	cmd := &cobra.Command{
		Use:   "wifi",
		Short: "Set Wi-Fi credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return send(cmd, opts, command.SetWifiConfig{Config: cfg})
		},
	}
	cmd.Flags().StringVar(&cfg.SSID, "ssid", "", "network SSID")
	cmd.Flags().StringVar(&cfg.Password, "password", "", "network password")
	_ = cmd.MarkFlagRequired("ssid")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func send(cmd *cobra.Command, opts *globalOptions, c command.Command) error {
	out := cmd.OutOrStdout()

	name, ports, err := choosePort(opts.port)
	if err != nil {
		return err
	}
	for _, p := range ports {
		fmt.Fprintln(out, p)
	}

	line, err := command.Encode(c)
	if err != nil {
		return err
	}
	line = append(line, '\n')

	p, err := openPort(name, &gobug.Mode{
		BaudRate: opts.baud,
		DataBits: 8,
		Parity:   gobug.NoParity,
		StopBits: gobug.OneStopBit,
	})
	if err != nil {
		return fmt.Errorf("open %s: %w", name, err)
	}
	defer p.Close()

	fmt.Fprintf(out, "Sending config: %q\n", line)
	reply, err := exchange(p, line, opts.timeout)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "Payload sent!")
	if reply != "" {
		fmt.Fprintln(out, reply)
	}
	return nil
}
