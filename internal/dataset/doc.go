// Package dataset holds the in-memory card statistics table.
//
// Records are schema-less rows loaded once from a CSV file. Each row gets a
// store-assigned integer id; every other field is a string, number, bool or
// null Value. Searches stringify both sides and compare them case-insensitively,
// so the number literals 5 and 5.0 are different values while 5 and "5" match.
package dataset
