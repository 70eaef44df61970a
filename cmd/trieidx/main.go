// Command trieidx indexes JSON records and searches them from a shell.
//
//	trieidx index records.json --dataset orgs --fields name,city
//	trieidx search ber --dataset orgs --fields name,city
//	trieidx cache list
package main

import (
	"os"
)

func main() {
	root, cleanup := newRootCmd()
	err := root.Execute()
	cleanup()
	if err != nil {
		os.Exit(1)
	}
}
