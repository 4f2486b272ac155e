// Command cotacoes-etl collects daily boi gordo quotation tables and
// persists them as partitioned parquet.
package main

import "github.com/agrodata/cotacoes-etl/cmd"

func main() {
	cmd.Execute()
}
