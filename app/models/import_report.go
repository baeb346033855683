package models

import "time"

// ImportReport archives the summary of one bulk product import. It lives
// in the document store, not the relational DB.
type ImportReport struct {
	ID            string    `bson:"_id" json:"id"`
	AdminID       uint      `bson:"admin_id" json:"admin_id"`
	ZipName       string    `bson:"zip_name" json:"zip_name"`
	CSVName       string    `bson:"csv_name" json:"csv_name"`
	ProcessedRows int       `bson:"processed_rows" json:"processed_rows"`
	Created       int       `bson:"created" json:"created"`
	Skipped       int       `bson:"skipped" json:"skipped"`
	Errors        []string  `bson:"errors" json:"errors"`
	Warnings      []string  `bson:"warnings" json:"warnings"`
	CreatedAt     time.Time `bson:"created_at" json:"created_at"`
}
