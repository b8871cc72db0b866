// Command blockmirror exercises a mirrored in-memory block device: it drives
// workloads through the transport callbacks and reports how the replica kept
// up.
package main

func main() {
	execute()
}
