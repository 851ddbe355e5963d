package models

// ImportRowError describes why a single CSV row was rejected. RowNumber is
// the position in the source file counting the header as row 1, so the first
// data row is 2.
type ImportRowError struct {
	RowNumber int    `json:"row_number"`
	Field     string `json:"field"`
	Value     string `json:"value"`
	Reason    string `json:"error"`
	RawData   string `json:"raw_data,omitempty"`
}

// ImportReport summarises a CSV import run. Rejected rows are listed in
// original file order; row-level problems never abort the rest of the file.
type ImportReport struct {
	TotalRows  int              `json:"total_rows"`
	Created    int              `json:"created_count"`
	Failed     int              `json:"failed_count"`
	CreatedIDs []string         `json:"created_ids"`
	Errors     []ImportRowError `json:"errors"`
	Message    string           `json:"message"`
}
