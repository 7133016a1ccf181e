// go-mdp reads MDP records from stdin and counts them by record id.  Data
// that is not MDP is counted under the id -1.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"

	"github.com/goblimey/go-mdp/mdp/handler"
	"github.com/goblimey/go-mdp/mdp/utils"
)

func main() {
	if err := countRecords(os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "go-mdp: %v\n", err)
		os.Exit(1)
	}
}

// countRecords reads the records and writes the count of each id.
func countRecords(reader io.Reader, writer io.Writer) error {
	recordCount := make(map[int]int)

	mdpHandler := handler.New(reader, slog.LevelInfo)
	var readError error
	for {
		message, err := mdpHandler.ReadNextMessage()
		if err != nil {
			if err != io.EOF {
				readError = err
			}
			break
		}
		recordCount[message.ID]++
	}

	ids := make([]int, 0, len(recordCount))
	for id := range recordCount {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	for _, id := range ids {
		_, err := fmt.Fprintf(writer, "record id %4d: %6d  %s\n", id, recordCount[id], utils.RecordTypeName(id))
		if err != nil {
			return err
		}
	}
	return readError
}
