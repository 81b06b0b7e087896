package main

import (
	"fmt"
	"os"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "send":
		err = runSend(os.Args[2:])
	case "receive":
		err = runReceive(os.Args[2:])
	case "version":
		fmt.Println("cliptunnel " + version)
	case "-h", "--help", "help":
		usage()
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "cliptunnel: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage:
  cliptunnel send -f FILE [-a] [-chunk BYTES] [-dividing BYTES] [-part-size BYTES] [-config PATH]
  cliptunnel receive -o DIR [-once] [-streaming] [-status ADDR] [-config PATH]
  cliptunnel version`)
}
