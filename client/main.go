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
	"bufio"
	"io"
	"log"
	"net"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/urfave/cli"

	"github.com/pinetree-games/gamegate/chat"
	"github.com/pinetree-games/gamegate/gamenet"
)

// VERSION is populated via build flags when packaging official binaries.
var VERSION = "SELFBUILD"

func main() {
	if VERSION == "SELFBUILD" {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}

	myApp := cli.NewApp()
	myApp.Name = "gamegate-client"
	myApp.Usage = "interactive chat client for the gamegate server"
	myApp.Version = VERSION
	myApp.ArgsUsage = "[port]"
	myApp.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "host",
			Value: "127.0.0.1",
			Usage: "server host to connect to",
		},
		cli.BoolFlag{
			Name:  "comp",
			Usage: "snappy compression, must match the server setting",
		},
	}
	myApp.Action = func(c *cli.Context) error {
		port := 7777
		if arg := c.Args().Get(0); arg != "" {
			p, err := strconv.Atoi(arg)
			if err != nil {
				return errors.Errorf("malformed port: %v", arg)
			}
			port = p
		}

		addr := net.JoinHostPort(c.String("host"), strconv.Itoa(port))
		conn, err := net.Dial("tcp", addr)
		if err != nil {
			return errors.Wrap(err, "dial")
		}
		defer conn.Close()

		var rw net.Conn = conn
		if c.Bool("comp") {
			rw = gamenet.NewCompConn(conn)
		}

		log.Println("connected to", addr, "- type a message and press enter")

		// stdin runs on its own goroutine, blocking reads included
		go sendLoop(rw)

		return recvLoop(rw)
	}
	if err := myApp.Run(os.Args); err != nil {
		log.Printf("%+v\n", err)
		os.Exit(1)
	}
}

// sendLoop turns every non-empty stdin line into a chat frame.
func sendLoop(conn net.Conn) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		frame := gamenet.Encode(gamenet.PacketC2SChat, []byte(line))
		if _, err := conn.Write(frame); err != nil {
			log.Printf("send: %v", err)
			return
		}
	}
}

// recvLoop prints incoming chat frames until the server closes the stream.
func recvLoop(conn net.Conn) error {
	hdr := make([]byte, gamenet.HeaderSize)
	var body []byte

	for {
		if _, err := io.ReadFull(conn, hdr); err != nil {
			if err == io.EOF {
				log.Println("server closed the connection")
				return nil
			}
			return errors.Wrap(err, "read header")
		}

		bodySize, ptype := gamenet.DecodeHeader(hdr)
		if bodySize == 0 || bodySize > gamenet.MaxPacketSize {
			return errors.Errorf("bad body size %d", bodySize)
		}

		if cap(body) < int(bodySize) {
			body = make([]byte, bodySize)
		}
		body = body[:bodySize]
		if _, err := io.ReadFull(conn, body); err != nil {
			return errors.Wrap(err, "read body")
		}

		if ptype != gamenet.PacketS2CChat {
			continue
		}
		sender, message, err := chat.DecodeServerChat(body)
		if err != nil {
			log.Printf("chat: %v", err)
			continue
		}
		if sender == chat.ServerSender {
			color.Yellow("* %s", message)
		} else {
			color.Green("[session %d] %s", sender, message)
		}
	}
}
