//go:build !linux && !darwin && !freebsd
// +build !linux,!darwin,!freebsd

package main

import "github.com/pinetree-games/gamegate/gamenet"

func watchStats(table *gamenet.Table) {}
