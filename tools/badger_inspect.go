// Command badger_inspect dumps the stored records behind a key prefix,
// a quick look inside the database during development.
//
// Prefixes: "chl:" challenges, "ntf:" notifications, "cmt:" communities.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/olekukonko/tablewriter"
)

func main() {
	dbPath := flag.String("db", "./data/badger", "Path to badger DB")
	prefix := flag.String("prefix", "chl:", "Prefix to scan")
	flag.Parse()

	db, err := badger.Open(badger.DefaultOptions(*dbPath).WithLoggingLevel(badger.ERROR))
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Bytes", "Preview"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)

	count := 0
	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(*prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()

			// Secondary index entries only point at primary keys
			if strings.HasPrefix(string(item.Key()), *prefix+"idx") {
				continue
			}

			err := item.Value(func(v []byte) error {
				table.Append([]string{string(item.Key()), fmt.Sprintf("%d", len(v)), preview(v)})
				count++
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Fatal("Error while scanning: ", err)
	}

	table.Render()
	fmt.Printf("\n%d records under prefix %q\n", count, *prefix)
}

// preview compacts a stored JSON document into one short line.
func preview(v []byte) string {
	var compact map[string]any
	if err := json.Unmarshal(v, &compact); err != nil {
		return "(not JSON)"
	}
	b, err := json.Marshal(compact)
	if err != nil {
		return "(not JSON)"
	}
	s := string(b)
	if len(s) > 100 {
		s = s[:97] + "..."
	}
	return s
}
