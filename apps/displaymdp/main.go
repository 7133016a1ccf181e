// displaymdp reads MDP records from a file or the standard input and
// writes a readable version of each to the standard output.
//
// MDP is a binary format.  Each record has a header giving its id, its
// length and the GPS time at which the receiver produced it.  The tool
// breaks out the header, and for navigation subframe and observation epoch
// records it breaks out the body too.  Anything between records that is
// not MDP is shown as a hex dump.  With -d, every record is shown as a hex
// dump as well.
//
// For example:
//
//	navigation subframe, frame length 63
//	id 310 (navigation subframe), length 63, time 2004-01-18 06:00:06 (week 1254, 21606000 ms), freshness 3, status 0x0000
//	PRN 05, carrier L1, range code C/A, nav code 0
//	 22c0...
//	subframe 1, HOW 21606
//
// The tool is useful for trouble-shooting a receiver: you can see what
// records it's sending and which satellites it's tracking.
//
// Usage:
//
//	displaymdp [-d] file
//
// A file name of "-" means the standard input.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/goblimey/go-mdp/mdp/handler"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run displays the records from the file named in args and returns the
// exit status.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("displaymdp", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var debug bool
	fs.BoolVar(&debug, "d", false, "show every record as a hex dump")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "usage: displaymdp [-d] file")
		return 1
	}

	reader := stdin
	if fileName := fs.Arg(0); fileName != "-" {
		file, err := os.Open(fileName)
		if err != nil {
			fmt.Fprintf(stderr, "displaymdp: cannot open %s - %v\n", fileName, err)
			return 1
		}
		defer file.Close()
		reader = file
	}

	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	if err := HandleMessages(reader, stdout, level); err != nil {
		fmt.Fprintf(stderr, "displaymdp: %v\n", err)
		return 1
	}
	return 0
}

// HandleMessages reads the MDP records from the reader and writes a
// readable version of each to the writer.
func HandleMessages(reader io.Reader, writer io.Writer, level slog.Level) error {

	// Write the heading.
	if _, err := io.WriteString(writer, "MDP data\n\nNote: times are GPS times.\n\n"); err != nil {
		return err
	}

	messageChan := make(chan *handler.Message, 2)
	done := make(chan error, 1)
	go func() { done <- DisplayMessages(messageChan, writer) }()

	mdpHandler := handler.New(reader, level)
	var readError error
	for {
		message, err := mdpHandler.ReadNextMessage()
		if err != nil {
			readError = err
			break
		}
		messageChan <- message
	}
	close(messageChan)

	if displayError := <-done; displayError != nil {
		return displayError
	}
	if errors.Is(readError, io.EOF) {
		return nil
	}
	return readError
}

// DisplayMessages receives messages from the given channel, produces a
// readable display of each and writes them to the writer.  It can be
// run in a goroutine.  After a write error it drains the channel so that
// the sender is not blocked.
func DisplayMessages(messageChan chan *handler.Message, writer io.Writer) error {
	var writeError error
	for message := range messageChan {
		if writeError != nil {
			continue
		}
		display := message.String() + "\n"
		_, writeError = writer.Write([]byte(display))
	}
	return writeError
}
