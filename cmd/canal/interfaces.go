package main

// Available bus implementations
import (
	_ "github.com/samsamfire/gocanal/pkg/can/canal"
	_ "github.com/samsamfire/gocanal/pkg/can/virtual"
)
