package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/abiosoft/ishell"

	"osdcon/font"
	"osdcon/host/backup"
	"osdcon/host/client"
)

func clientFrom(c *ishell.Context) *client.Client {
	return c.Get(clientKey).(*client.Client)
}

// exec wraps a command that needs at least n arguments.
func exec(n int, usage string, fn func(c *ishell.Context, cl *client.Client) error) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if len(c.Args) < n {
			c.Err(fmt.Errorf("usage: %s", usage))
			return
		}
		if err := fn(c, clientFrom(c)); err != nil {
			c.Err(err)
		}
	}
}

func printResponse(c *ishell.Context, resp string) {
	resp = strings.TrimRight(resp, "\r\n")
	if resp != "" {
		c.Println(strings.ReplaceAll(resp, "\r\n", "\n"))
	}
}

var commands = []*ishell.Cmd{
	{
		Name:    "exec",
		Aliases: []string{"x"},
		Help:    "LINE... - run a console line on the OSD",
		Func: exec(1, "exec LINE...", func(c *ishell.Context, cl *client.Client) error {
			resp, err := cl.Exec(strings.Join(c.Args, " "))
			if err != nil {
				return err
			}
			printResponse(c, resp)
			return nil
		}),
	},
	{
		Name: "info",
		Help: "firmware version, modules, panels",
		Func: exec(0, "info", func(c *ishell.Context, cl *client.Client) error {
			resp, err := cl.Exec("info")
			if err != nil {
				return err
			}
			printResponse(c, resp)
			return nil
		}),
	},
	{
		Name:    "list",
		Aliases: []string{"l"},
		Help:    "list all options",
		Func: exec(0, "list", func(c *ishell.Context, cl *client.Client) error {
			resp, err := cl.Exec("opt l")
			if err != nil {
				return err
			}
			printResponse(c, resp)
			return nil
		}),
	},
	{
		Name:    "get",
		Aliases: []string{"g"},
		Help:    "NAME - print an option value",
		Func: exec(1, "get NAME", func(c *ishell.Context, cl *client.Client) error {
			v, err := cl.Get(c.Args[0])
			if err != nil {
				return err
			}
			c.Println(v)
			return nil
		}),
	},
	{
		Name:    "set",
		Aliases: []string{"s"},
		Help:    "NAME VALUE - store an option value",
		Func: exec(2, "set NAME VALUE", func(c *ishell.Context, cl *client.Client) error {
			v, err := cl.Set(c.Args[0], c.Args[1])
			if err != nil {
				return err
			}
			c.Println(v)
			return nil
		}),
	},
	{
		Name: "defaults",
		Help: "reset all options to defaults",
		Func: exec(0, "defaults", func(c *ishell.Context, cl *client.Client) error {
			resp, err := cl.Exec("reset")
			if err != nil {
				return err
			}
			printResponse(c, resp)
			return nil
		}),
	},
	{
		Name: "font.save",
		Help: "FILE - download the font into an MCM file",
		Func: exec(1, "font.save FILE", func(c *ishell.Context, cl *client.Client) error {
			t, err := cl.DownloadFont()
			if err != nil {
				return err
			}
			f, err := os.Create(c.Args[0])
			if err != nil {
				return err
			}
			if err := font.Encode(f, t); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			c.Printf("font saved to %s, crc %04x\n", c.Args[0], t.CRC16())
			return nil
		}),
	},
	{
		Name: "font.load",
		Help: "FILE - upload an MCM file",
		Func: exec(1, "font.load FILE", func(c *ishell.Context, cl *client.Client) error {
			f, err := os.Open(c.Args[0])
			if err != nil {
				return err
			}
			t, err := font.Decode(f)
			f.Close()
			if err != nil {
				return fmt.Errorf("%s: %w", c.Args[0], err)
			}
			c.Printf("uploading %s, crc %04x\n", c.Args[0], t.CRC16())
			return cl.UploadFont(t)
		}),
	},
	{
		Name: "eeprom.backup",
		Help: "FILE - save the EEPROM image",
		Func: exec(1, "eeprom.backup FILE", func(c *ishell.Context, cl *client.Client) error {
			data, err := cl.ReadEEPROM()
			if err != nil {
				return err
			}
			if err := backup.Save(c.Args[0], data); err != nil {
				return err
			}
			c.Printf("%d bytes saved to %s\n", len(data), c.Args[0])
			return nil
		}),
	},
	{
		Name: "eeprom.restore",
		Help: "FILE - write a saved EEPROM image back",
		Func: exec(1, "eeprom.restore FILE", func(c *ishell.Context, cl *client.Client) error {
			data, err := backup.Load(c.Args[0])
			if err != nil {
				return fmt.Errorf("%s: %w", c.Args[0], err)
			}
			if err := cl.WriteEEPROM(data); err != nil {
				return err
			}
			c.Printf("%d bytes restored from %s\n", len(data), c.Args[0])
			return nil
		}),
	},
}
