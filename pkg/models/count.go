package models

// Count is the result of a patch or delete.
type Count struct {
	Count int64 `json:"count"`
}
