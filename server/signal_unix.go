//go:build linux || darwin || freebsd
// +build linux darwin freebsd

package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/pinetree-games/gamegate/gamenet"
)

// watchStats dumps the live session count on SIGUSR1.
func watchStats(table *gamenet.Table) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGUSR1)
	signal.Ignore(syscall.SIGPIPE)

	for range ch {
		log.Printf("live sessions: %d", table.Len())
	}
}
