package main

import (
	"fmt"
	"log"

	"github.com/xdelta-go/vcdiff"
)

func main() {
	source := []byte("Hello, World! This is the original document that we will be diffing against.")
	target := []byte("Hello, World! This is the UPDATED document that we will be diffing against, with more text appended at the end.")

	delta, err := vcdiff.EncodeAll(source, target, vcdiff.DefaultEncodeOptions())
	if err != nil {
		log.Fatalf("failed to encode: %v", err)
	}
	fmt.Printf("Source:      %d bytes\n", len(source))
	fmt.Printf("Target:      %d bytes\n", len(target))
	fmt.Printf("Delta:       %d bytes\n", len(delta))

	result, err := vcdiff.Decode(source, delta)
	if err != nil {
		log.Fatalf("failed to decode: %v", err)
	}
	fmt.Printf("Result:      %q\n", result)

	if string(result) != string(target) {
		log.Fatalf("roundtrip mismatch: got %q, want %q", result, target)
	}
	fmt.Println("roundtrip OK")
}
