// Package gocanal is a small client for CAN adapters driven through a CANAL
// driver library.
//
// A session opens one channel, sends a single frame and prints every received
// frame until it is stopped :
//
//	bus, err := can.NewBus("canal", "/usr/lib/libcanal.so")
//	...
//	client := gocanal.NewClient(bus, os.Stdout, gocanal.LabelFromSent)
//	defer client.Close()
//	if err := client.Open("0;00005502;125", uint32(0)); err != nil {
//		...
//	}
//	client.SendOnce(gocanal.DemoFrame())
//	client.Run(ctx)
//
// Other bus implementations (virtual, socketcan) can be used in place of canal.
package gocanal
