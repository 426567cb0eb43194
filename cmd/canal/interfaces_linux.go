//go:build linux

package main

import (
	_ "github.com/samsamfire/gocanal/pkg/can/socketcan"
)
