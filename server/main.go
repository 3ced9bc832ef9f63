// The MIT License (MIT)
//
// # Copyright (c) 2024 pinetree-games
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package main

import (
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/urfave/cli"

	"github.com/pinetree-games/gamegate/chat"
	"github.com/pinetree-games/gamegate/gamenet"
)

// VERSION is populated via build flags when packaging official binaries.
var VERSION = "SELFBUILD"

func main() {
	if VERSION == "SELFBUILD" {
		// Enable timestamps + file:line to simplify debugging self-built binaries.
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}

	myApp := cli.NewApp()
	myApp.Name = "gamegate"
	myApp.Usage = "framed TCP game session server"
	myApp.Version = VERSION
	myApp.ArgsUsage = "[port]"
	myApp.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "log",
			Value: "",
			Usage: "specify a log file to output, default goes to stderr",
		},
		cli.BoolFlag{
			Name:  "quiet",
			Usage: "to suppress the chat traffic messages",
		},
		cli.BoolFlag{
			Name:  "comp",
			Usage: "snappy compression on every connection, clients must enable it too",
		},
		cli.BoolFlag{
			Name:  "pprof",
			Usage: "start profiling server on :6060",
		},
		cli.StringFlag{
			Name:  "c",
			Value: "", // when set, the JSON file must exist on disk
			Usage: "config from json file, which will override the command from shell",
		},
	}
	myApp.Action = func(c *cli.Context) error {
		config := Config{}
		config.Port = defaultPort
		config.Log = c.String("log")
		config.Quiet = c.Bool("quiet")
		config.Comp = c.Bool("comp")
		config.Pprof = c.Bool("pprof")

		if arg := c.Args().Get(0); arg != "" {
			port, err := parsePort(arg)
			checkError(err)
			config.Port = port
		}

		if c.String("c") != "" {
			// Only JSON configuration files are supported at the moment.
			err := parseJSONConfig(&config, c.String("c"))
			checkError(err)
			checkError(checkPort(config.Port))
		}

		// Redirect logs when the user supplied a dedicated log file.
		if config.Log != "" {
			f, err := os.OpenFile(config.Log, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
			checkError(err)
			defer f.Close()
			log.SetOutput(f)
		}

		log.Println("version:", VERSION)
		log.Println("port:", config.Port)
		log.Println("compression:", config.Comp)
		log.Println("quiet:", config.Quiet)
		log.Println("pprof:", config.Pprof)

		if config.Comp {
			color.Red("compression enabled: plain clients will be dropped, connect with --comp")
		}

		// Start the pprof server if the feature is enabled.
		if config.Pprof {
			go http.ListenAndServe(":6060", nil)
		}

		handler := chat.NewHandler(config.Quiet)
		srv, err := gamenet.NewServer(gamenet.ServerConfig{Port: config.Port, Comp: config.Comp}, handler)
		checkError(err)
		handler.Bind(srv.Table())

		stopped := make(chan struct{})
		go func() {
			watchSignals(srv)
			close(stopped)
		}()
		go watchStats(srv.Table())

		err = srv.Serve()
		// Serve returns once the listener closes; wait for Stop to finish
		// disconnecting the sessions before exiting.
		<-stopped
		return err
	}
	if err := myApp.Run(os.Args); err != nil {
		log.Printf("%+v\n", err)
		os.Exit(1)
	}
}

// watchSignals turns the first termination signal into a graceful stop:
// the acceptor closes, every session disconnects, and Serve returns nil.
func watchSignals(srv *gamenet.Server) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	sig := <-ch
	log.Println("signal:", sig, "- shutting down")
	srv.Stop()
}

func checkError(err error) {
	if err != nil {
		log.Printf("%+v\n", err)
		os.Exit(1)
	}
}
