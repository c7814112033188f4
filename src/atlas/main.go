// Command atlas prints the postgres schema of the gorm store for atlas migrations.
package main

import (
	"fmt"
	"io"
	"os"
	"sitbook/src/store/sqlstore"

	"ariga.io/atlas-provider-gorm/gormschema"
)

func main() {
	stmts, err := gormschema.New("postgres").Load(sqlstore.Models()...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load gorm schema: %v\n", err)
		os.Exit(1)
	}
	io.WriteString(os.Stdout, stmts)
}
