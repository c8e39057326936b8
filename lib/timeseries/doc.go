/*
Package timeseries contains the data model of timeseries tables: typed cells, rows,
table definitions and query results.

A table has a fixed list of columns. Columns marked as PartitionKey or LocalKey form
the row key in the order they are declared, a row is addressed by the list of its
key cells (see KeyOf and EncodeKey). Cells are tagged values, reading a cell with the
accessor of another type returns the zero value.
*/
package timeseries
