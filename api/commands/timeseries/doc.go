// Package timeseries contains the commands for timeseries tables: CreateTable,
// Store, Fetch and Delete.
//
// Rows are stored in tables with a fixed schema. The key of a row is formed by its
// partition key columns followed by its local key columns, Fetch and Delete address
// a row by these key cells:
//
//	key := []timeseries.Cell{
//	  timeseries.NewCell("hash2"),
//	  timeseries.NewCell("user4"),
//	  timeseries.NewTimestampCell(ts),
//	}
//	cmd, _ := tscmd.NewFetchBuilder("GeoCheckin", key).Build()
//	result, err := commands.Execute(c, cmd)
//
// Errors of the node are reported as *cluster.TransportError: RetCNotFound for a
// missing table (or row on delete), RetCInvalidOperation for rows or keys that do
// not match the schema.
package timeseries
