// osd-host is an interactive shell for the OSD text console: option
// access, font transfers and EEPROM backups over a serial port.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/abiosoft/ishell"
	"github.com/golang/glog"
	"github.com/google/shlex"

	"osdcon/host/client"
	"osdcon/host/config"
	"osdcon/host/serial"
)

var (
	configPath = flag.String("config", "", "YAML configuration file")
	device     = flag.String("device", "", "Serial device path (overrides config)")
	baud       = flag.Int("baud", 0, "Baud rate (overrides config)")
	script     = flag.String("script", "", "Run the commands in this file and exit")
	evalOnly   = flag.Bool("e", false, "Run the command given as arguments and exit")
)

const clientKey = "$client"

func main() {
	flag.Parse()
	defer glog.Flush()

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	port, err := serial.Open(cfg.SerialPort())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to open %s: %v\n", cfg.Serial.Device, err)
		os.Exit(1)
	}
	c := client.New(port, client.Options{
		Prompt:     cfg.Console.Prompt,
		Timeout:    cfg.Console.Timeout,
		GlyphDelay: cfg.Console.GlyphDelay,
		EEPROMSize: cfg.EEPROM.Size,
	})
	defer c.Close()

	glog.Infof("waiting for the OSD console on %s at %d baud", cfg.Serial.Device, cfg.Serial.Baud)
	if err := c.Sync(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: OSD console not responding: %v\n", err)
		os.Exit(1)
	}

	shell := ishell.New()
	shell.Set(clientKey, c)
	shell.SetPrompt("osd > ")
	for _, cmd := range commands {
		shell.AddCmd(cmd)
	}

	switch {
	case *script != "":
		if err := runScript(shell, *script); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case *evalOnly:
		if flag.NArg() == 0 {
			fmt.Fprintln(os.Stderr, "Error: command expected")
			os.Exit(2)
		}
		if err := shell.Process(flag.Args()...); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	default:
		shell.Println("OSD console connected, type 'help' for commands")
		shell.Run()
	}
}

func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			return nil, err
		}
	}
	if *device != "" {
		cfg.Serial.Device = *device
	}
	if *baud != 0 {
		cfg.Serial.Baud = *baud
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// runScript runs one shell command per line. Blank lines and lines
// starting with # are skipped; words are split with shell quoting rules.
func runScript(shell *ishell.Shell, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		args, err := shlex.Split(line)
		if err != nil {
			return fmt.Errorf("%s:%d: %w", path, n, err)
		}
		glog.V(1).Infof("script: %q", args)
		if err := shell.Process(args...); err != nil {
			return fmt.Errorf("%s:%d: %w", path, n, err)
		}
	}
	return sc.Err()
}
