package blockdev_test

import (
	"context"
	"fmt"

	"github.com/joshuapare/blockmirror/pkg/blockdev"
)

// Example writes through the device and forces the replica up to date.
func Example() {
	opts := blockdev.DefaultOptions()
	opts.Size = 4096

	dev, err := blockdev.Open(opts)
	if err != nil {
		fmt.Printf("Open failed: %v\n", err)
		return
	}
	defer dev.Close(context.Background())

	_ = dev.Write([]byte("hello"), 0)
	_ = dev.Write([]byte("world"), 8)

	rep, err := dev.Sync(context.Background())
	if err != nil {
		fmt.Printf("Sync failed: %v\n", err)
		return
	}

	remote := make([]byte, 13)
	_ = dev.ReadRemote(remote, 0)
	fmt.Printf("ranges=%d bytes=%d consistent=%v\n", rep.Ranges, rep.Bytes, rep.Consistent)
	fmt.Printf("%q\n", remote)
	// Output:
	// ranges=1 bytes=13 consistent=true
	// "hello\x00\x00\x00world"
}

// ExampleDevice_Disconnect shows the shutdown sequence a transport follows.
func ExampleDevice_Disconnect() {
	dev, err := blockdev.Open(blockdev.Options{Size: 1024})
	if err != nil {
		fmt.Printf("Open failed: %v\n", err)
		return
	}
	ctx := context.Background()
	if err := dev.Init(ctx); err != nil {
		fmt.Printf("Init failed: %v\n", err)
		return
	}

	_ = dev.Write([]byte{0xFF}, 512)
	dev.Disconnect()
	_ = dev.Wait(ctx)

	fmt.Println(dev.Verify() == nil)
	_ = dev.Close(ctx)
	// Output: true
}
